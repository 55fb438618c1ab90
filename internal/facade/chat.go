// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package facade

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/groupsio/claudegate/internal/cache"
	"github.com/groupsio/claudegate/internal/claudeproc"
	cliformat "github.com/groupsio/claudegate/internal/claudeproc/cliformat" // package is named "claude"
	"github.com/groupsio/claudegate/internal/control"
	"github.com/groupsio/claudegate/internal/gatewayerrors"
	"github.com/groupsio/claudegate/internal/gatewaylog"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
	"github.com/groupsio/claudegate/internal/memory"
	"github.com/groupsio/claudegate/internal/session"
)

// resumeFailureMarker is the substring the claude CLI emits in a result
// frame's errors when a --resume session id has no matching on-disk
// transcript, grounded on the teacher's internal/claude/manager.go
// ensureProcess resume-failure detection.
const resumeFailureMarker = "No conversation found with session ID"

// ChatRequest is the OpenAI-shaped request accepted by ChatCompletion:
// (conversation_id, model, messages, stream?, tools?) per spec.md §6.
type ChatRequest struct {
	ConversationID string
	Model          string
	Messages       []gatewaytypes.Message
	Stream         bool
	Tools          []string
	SystemPrompt   string
	CWD            string
}

// ChatResponse is the non-streaming result of ChatCompletion.
type ChatResponse struct {
	ConversationID string
	Model          string
	Message        gatewaytypes.Message
	Usage          *gatewaytypes.Usage
	Cached         bool
}

// ChatDelta is one incremental update of a streaming ChatCompletion call.
type ChatDelta struct {
	Frame gatewaytypes.DataFrame
}

// Gateway wires the interactive facade, the tiered cache, and the
// memory index into the single ChatCompletion entry point. Grounded on
// internal/api/handlers/claude.go's handler, which plays the same
// orchestrator role over the teacher's Manager.
type Gateway struct {
	CLIPath string
	Memory  memory.Index
	Scorer  *memory.Scorer
	Cache   *cache.Cache

	interactive *Interactive

	pendingMu sync.Mutex
	pending   map[string]claudeproc.Options // conversationID -> options for the next spawn

	resumeMu  sync.Mutex
	resumeIDs map[string]string // conversationID -> last known claude CLI session id
}

// NewGateway constructs a Gateway and the session.Manager backing its
// Interactive facade. idle/sweep/maxSpawns of zero use session's
// package defaults.
func NewGateway(cliPath string, memIndex memory.Index, respCache *cache.Cache, idle, sweep time.Duration, maxSpawns int64) *Gateway {
	g := &Gateway{
		CLIPath:   cliPath,
		Memory:    memIndex,
		Scorer:    memory.NewScorer(),
		Cache:     respCache,
		pending:   make(map[string]claudeproc.Options),
		resumeIDs: make(map[string]string),
	}
	manager := session.NewManager(g.spawn, idle, sweep, maxSpawns)
	g.interactive = NewInteractive(manager)
	return g
}

// Interactive exposes the pooled-session facade backing this Gateway,
// for callers (the debug WebSocket handler) that need direct access to
// control-channel plumbing the chat surface doesn't use.
func (g *Gateway) Interactive() *Interactive {
	return g.interactive
}

// Run starts the underlying session manager's idle reaper.
func (g *Gateway) Run(ctx context.Context) {
	// the *session.Manager isn't exported off Interactive; Interactive
	// owns it and is the only thing that needs a reference, so Gateway
	// starts it through the facade it already holds.
	g.interactive.sessions.Run(ctx)
}

// Shutdown disconnects every live session, used by the daemon's
// graceful-shutdown path.
func (g *Gateway) Shutdown(ctx context.Context) {
	g.interactive.sessions.Shutdown(ctx)
}

// spawn is the session.Spawner handed to the Manager: it looks up the
// options staged for conversationID by setOptions, builds a Transport
// and Engine, and runs Engine.Initialize with no hooks registered (the
// chat surface has no SDK-side hook consumer of its own).
func (g *Gateway) spawn(ctx context.Context, conversationID string) (*claudeproc.Transport, *control.Engine, string, error) {
	g.pendingMu.Lock()
	opts, ok := g.pending[conversationID]
	g.pendingMu.Unlock()
	if !ok {
		return nil, nil, "", gatewayerrors.New(gatewayerrors.Internal, "spawn requested with no staged options for conversation "+conversationID)
	}
	opts.InputFormatStreamJSON = true
	opts.PrintMode = false

	transport, err := claudeproc.Spawn(ctx, g.CLIPath, opts, func(line, _ string) {
		gatewaylog.Warnf("claude stderr conversation=%s: %s", conversationID, line)
	})
	if err != nil {
		return nil, nil, "", err
	}

	engine := control.New(transport, nil, nil, opts.EnableFileCheckpointing)
	engine.Start(ctx)
	if _, err := engine.Initialize(ctx, nil, nil); err != nil {
		_ = transport.Disconnect(ctx)
		return nil, nil, "", err
	}

	return transport, engine, opts.Model, nil
}

func (g *Gateway) stageOptions(conversationID string, opts claudeproc.Options) {
	g.pendingMu.Lock()
	g.pending[conversationID] = opts
	g.pendingMu.Unlock()
}

// getResumeID returns the last claude CLI session id observed for
// conversationID, if any, for staging as claudeproc.Options.Resume on
// the next spawn.
func (g *Gateway) getResumeID(conversationID string) string {
	g.resumeMu.Lock()
	defer g.resumeMu.Unlock()
	return g.resumeIDs[conversationID]
}

func (g *Gateway) setResumeID(conversationID, cliSessionID string) {
	g.resumeMu.Lock()
	defer g.resumeMu.Unlock()
	if cliSessionID == "" {
		delete(g.resumeIDs, conversationID)
		return
	}
	g.resumeIDs[conversationID] = cliSessionID
}

// rebuildResumeFailure handles a result frame reporting that the CLI has
// no record of the --resume session id staged for this turn: it
// reconstructs an on-disk transcript from the request's message history
// so the next spawn has something to resume from, and evicts the pooled
// session so that spawn actually happens. Grounded on the teacher's
// internal/claude/manager.go ensureProcess resume-failure handling,
// adapted from its inline-retry to claudegate's "prepare state for the
// next turn's spawn" pooled-session model.
func (g *Gateway) rebuildResumeFailure(req ChatRequest) {
	newID, err := cliformat.WriteCLISessionFile(req.CWD, req.CWD, "", req.Messages)
	if err != nil {
		gatewaylog.Warnf("rebuild CLI session after resume failure conversation=%s: %v", req.ConversationID, err)
		g.setResumeID(req.ConversationID, "")
	} else {
		g.setResumeID(req.ConversationID, newID)
	}
	g.interactive.sessions.Evict(req.ConversationID)
}

func resumeFailed(result *gatewaytypes.ResultMessage) bool {
	if result == nil || !result.IsError {
		return false
	}
	for _, msg := range result.Errors {
		if strings.Contains(msg, resumeFailureMarker) {
			return true
		}
	}
	return false
}

// lastUserText extracts the plain text of the final user message, used
// both as the outbound turn content and as the memory search query.
func lastUserText(messages []gatewaytypes.Message) string {
	for idx := len(messages) - 1; idx >= 0; idx-- {
		if messages[idx].Role != gatewaytypes.RoleUser {
			continue
		}
		var text string
		for _, block := range messages[idx].Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		return text
	}
	return ""
}

// filesTouchedInMessages flattens every message's content blocks into
// one deduplicated file set, used as the "current" side of the memory
// scorer's files-overlap term: the conversation's accumulated tool
// activity so far, not just the latest turn.
func filesTouchedInMessages(messages []gatewaytypes.Message) []string {
	var blocks []gatewaytypes.ContentBlock
	for _, msg := range messages {
		blocks = append(blocks, msg.Content...)
	}
	return memory.ExtractFiles(blocks)
}

// retrieveMemoryPrefix searches the memory index for context relevant
// to this turn and formats it as a system-prompt prefix, or "" if
// nothing scores above the relevance threshold.
func (g *Gateway) retrieveMemoryPrefix(ctx context.Context, req ChatRequest, queryText string) string {
	if g.Memory == nil || queryText == "" {
		return ""
	}
	hits, err := g.Memory.Search(ctx, memory.SearchQuery{ConversationID: req.ConversationID, Text: queryText})
	if err != nil || len(hits) == 0 {
		return ""
	}

	currentFiles := filesTouchedInMessages(req.Messages)

	now := time.Now()
	scored := make([]memory.Scored, 0, len(hits))
	for _, hit := range hits {
		doc := hit.Document
		score := g.Scorer.Score(hit.RawScore, req.CWD, doc.CWD, currentFiles, doc.FilesTouched, doc.CreatedAt, now)
		scored = append(scored, memory.Scored{
			Role:      doc.Role,
			Content:   doc.Content,
			Summary:   doc.Summary,
			CreatedAt: doc.CreatedAt,
			Score:     score,
		})
	}
	return memory.FormatPrefix(scored, memory.DefaultBudgetChars)
}

// storeTurnMemory indexes the completed turn's user and assistant text
// so future calls can retrieve it, per spec.md §4.4. Best-effort: a
// failure here never fails the chat call.
func (g *Gateway) storeTurnMemory(ctx context.Context, req ChatRequest, turnIndex int, userText, assistantText string, turnBlocks []gatewaytypes.ContentBlock) {
	if g.Memory == nil {
		return
	}
	now := time.Now()
	filesTouched := memory.ExtractFiles(turnBlocks)
	_ = g.Memory.Store(ctx, gatewaytypes.MemoryDocument{
		ID:             req.ConversationID + ":" + time.Now().Format(time.RFC3339Nano),
		ConversationID: req.ConversationID,
		Role:           "user",
		Content:        userText,
		TurnIndex:      turnIndex,
		CreatedAt:      now,
		CWD:            req.CWD,
		FilesTouched:   filesTouched,
	})
	if assistantText != "" {
		_ = g.Memory.Store(ctx, gatewaytypes.MemoryDocument{
			ID:             req.ConversationID + ":" + time.Now().Format(time.RFC3339Nano) + ":assistant",
			ConversationID: req.ConversationID,
			Role:           "assistant",
			Content:        assistantText,
			TurnIndex:      turnIndex,
			CreatedAt:      now,
			CWD:            req.CWD,
			FilesTouched:   filesTouched,
		})
	}
}

func marshalCachedResponse(resp *ChatResponse) (json.RawMessage, error) {
	return json.Marshal(resp)
}

func unmarshalCachedResponse(raw json.RawMessage, resp *ChatResponse) error {
	return json.Unmarshal(raw, resp)
}

func contentText(blocks []gatewaytypes.ContentBlock) string {
	var text string
	for _, block := range blocks {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text
}

// ChatCompletion is the single exported entry point the HTTP facade
// calls: it wires memory retrieval (prefix injection), the tiered
// cache (read-through on non-streaming, write-through on completion),
// and the interactive facade together.
func (g *Gateway) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, <-chan ChatDelta, error) {
	if req.ConversationID == "" {
		return nil, nil, gatewayerrors.New(gatewayerrors.BadRequest, "conversation_id is required")
	}
	if len(req.Messages) == 0 {
		return nil, nil, gatewayerrors.New(gatewayerrors.BadRequest, "messages must not be empty")
	}

	userText := lastUserText(req.Messages)
	cacheKey := cache.Fingerprint(req.Model, req.Messages)

	if !req.Stream && g.Cache != nil {
		if raw, hit := g.Cache.Get(ctx, cacheKey); hit {
			var cached ChatResponse
			if err := unmarshalCachedResponse(raw, &cached); err == nil {
				cached.Cached = true
				return &cached, nil, nil
			}
		}
	}

	memoryPrefix := g.retrieveMemoryPrefix(ctx, req, userText)
	systemPrompt := req.SystemPrompt
	if memoryPrefix != "" {
		systemPrompt = memoryPrefix + "\n\n" + systemPrompt
	}

	opts := claudeproc.Options{
		SystemPrompt: &systemPrompt,
		Model:        req.Model,
		AllowedTools: req.Tools,
		WorkDir:      req.CWD,
		Resume:       g.getResumeID(req.ConversationID),
	}
	g.stageOptions(req.ConversationID, opts)

	blocks := []gatewaytypes.ContentBlock{{Type: "text", Text: userText}}
	frame := gatewaytypes.NewUserFrame(req.ConversationID, blocks, nil)

	deltas, wait, err := g.interactive.SendAndReceiveUntilResult(ctx, req.ConversationID, frame)
	if err != nil {
		return nil, nil, err
	}

	if req.Stream {
		out := make(chan ChatDelta, claudeproc.DefaultChannelSize)
		go func() {
			defer close(out)
			for delta := range deltas {
				out <- ChatDelta{Frame: delta.Frame}
			}
			turn, err := wait()
			if err != nil {
				gatewaylog.Warnf("streaming turn ended in error conversation=%s: %v", req.ConversationID, err)
				return
			}
			g.finishTurn(ctx, req, cacheKey, userText, turn)
		}()
		return nil, out, nil
	}

	for range deltas {
		// drain for the non-streaming caller; content lives in the
		// aggregated turn returned by wait.
	}
	turn, err := wait()
	if err != nil {
		return nil, nil, err
	}

	resp := g.finishTurn(ctx, req, cacheKey, userText, turn)
	return resp, nil, nil
}

// finishTurn builds the final ChatResponse from an aggregated turn,
// writes it through to the cache, and indexes it into memory.
func (g *Gateway) finishTurn(ctx context.Context, req ChatRequest, cacheKey, userText string, turn *session.AggregatedTurn) *ChatResponse {
	assistantText := contentText(turn.ContentBlocks)
	resp := &ChatResponse{
		ConversationID: req.ConversationID,
		Model:          req.Model,
		Message: gatewaytypes.Message{
			Role:      gatewaytypes.RoleAssistant,
			Content:   turn.ContentBlocks,
			Timestamp: time.Now(),
		},
	}
	if sess, ok := g.interactive.sessions.Lookup(req.ConversationID); ok {
		usage := sess.Usage()
		resp.Usage = &usage
	} else if turn.Result != nil {
		resp.Usage = turn.Result.Usage
	}

	if resumeFailed(turn.Result) {
		gatewaylog.Warnf("resume failed for conversation=%s, rebuilding session from history", req.ConversationID)
		g.rebuildResumeFailure(req)
	} else if turn.Result != nil && turn.Result.SessionID != "" {
		g.setResumeID(req.ConversationID, turn.Result.SessionID)
	}

	if g.Cache != nil {
		if raw, err := marshalCachedResponse(resp); err == nil {
			g.Cache.Put(ctx, cacheKey, raw)
		}
	}

	g.storeTurnMemory(ctx, req, len(req.Messages), userText, assistantText, turn.ContentBlocks)
	return resp
}
