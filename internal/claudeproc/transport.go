// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claudeproc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/mitchellh/go-ps"
	"golang.org/x/sync/errgroup"

	"github.com/groupsio/claudegate/internal/gatewayerrors"
	"github.com/groupsio/claudegate/internal/gatewaylog"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// SDKVersion is reported to the CLI via CLAUDE_AGENT_SDK_VERSION.
var SDKVersion = "0.1.0"

// StderrSink receives every non-blank stderr line, pre-classified.
type StderrSink func(line string, classification string)

// Transport owns one CLI child process. Its zero value is not usable;
// construct with Spawn. Data(), ControlResponses(), and InboundControl()
// return the three logical sinks described in SPEC_FULL.md §6.1.
type Transport struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	group  *errgroup.Group

	stdinCh chan []byte
	stdin   io.WriteCloser

	data              *broadcaster
	controlResponses  chan json.RawMessage
	inboundControl    chan gatewaytypes.InboundControlRequest

	stderrSink StderrSink

	disconnectOnce sync.Once
	disconnected   atomic.Bool
	exitErr        atomic.Value // error
}

// Spawn builds argv from opts and starts cliPath, which the caller has
// already resolved (see Resolve and CheckVersion), as a child process
// with piped stdio. The caller must
// call Disconnect (ideally via defer) to release resources; Go has no
// Drop, so there is no automatic best-effort kill if the caller forgets.
func Spawn(ctx context.Context, cliPath string, opts Options, sink StderrSink) (*Transport, error) {
	args := BuildArgs(opts)

	// The child's lifetime is independent of ctx (which only scopes this
	// call); Disconnect is the sole teardown path once Spawn returns.
	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, cliPath, args...)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	cmd.Env = append(os.Environ(),
		"CLAUDE_CODE_ENTRYPOINT=sdk",
		"CLAUDE_AGENT_SDK_VERSION="+SDKVersion,
	)
	if opts.MaxOutputTokens > 0 {
		clamped, _ := ClampMaxOutputTokens(opts.MaxOutputTokens)
		cmd.Env = append(cmd.Env, "CLAUDE_CODE_MAX_OUTPUT_TOKENS="+strconv.Itoa(clamped))
	}
	if opts.EnableFileCheckpointing {
		cmd.Env = append(cmd.Env, "CLAUDE_CODE_ENABLE_SDK_FILE_CHECKPOINTING=true")
	}

	if err := applyUserSwitch(cmd, opts.RunAsUser); err != nil {
		cancel()
		return nil, err
	}

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, gatewayerrors.Wrap(gatewayerrors.Connection, "create stdin pipe", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, gatewayerrors.Wrap(gatewayerrors.Connection, "create stdout pipe", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, gatewayerrors.Wrap(gatewayerrors.Connection, "create stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, gatewayerrors.Wrap(gatewayerrors.Connection,
			fmt.Sprintf("start %s", cliPath), err)
	}

	t := &Transport{
		cmd:              cmd,
		cancel:           cancel,
		stdinCh:          make(chan []byte, DefaultChannelSize),
		stdin:            stdinPipe,
		data:             newBroadcaster(DefaultChannelSize),
		controlResponses: make(chan json.RawMessage, DefaultChannelSize),
		inboundControl:   make(chan gatewaytypes.InboundControlRequest, DefaultChannelSize),
		stderrSink:       sink,
	}

	group, gctx := errgroup.WithContext(procCtx)
	t.group = group
	group.Go(func() error { return t.stdinWriteLoop(gctx) })
	group.Go(func() error { t.readLoop(stdoutPipe); return nil })
	group.Go(func() error { t.stderrLoop(stderrPipe); return nil })

	return t, nil
}

// Data returns the broadcast sink of decoded non-control frames.
func (t *Transport) Data() *broadcaster { return t.data }

// ControlResponses returns the single-consumer queue of
// {"type":"control_response",...} envelopes (SDK-initiated requests'
// answers).
func (t *Transport) ControlResponses() <-chan json.RawMessage { return t.controlResponses }

// InboundControl returns the single-consumer queue of CLI-initiated
// control requests.
func (t *Transport) InboundControl() <-chan gatewaytypes.InboundControlRequest {
	return t.inboundControl
}

// WriteLine serializes v as compact JSON and enqueues it for the single
// stdin writer goroutine. Blocks if the stdin channel is full — this is
// the backpressure mechanism spec §4.1 calls out by design.
func (t *Transport) WriteLine(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return gatewayerrors.Wrap(gatewayerrors.Parse, "marshal outbound frame", err)
	}
	select {
	case t.stdinCh <- data:
		return nil
	case <-ctx.Done():
		return gatewayerrors.Wrap(gatewayerrors.Timeout, "write stdin", ctx.Err())
	}
}

func (t *Transport) stdinWriteLoop(ctx context.Context) error {
	for {
		select {
		case data, ok := <-t.stdinCh:
			if !ok {
				return nil
			}
			if _, err := t.stdin.Write(append(data, '\n')); err != nil {
				return gatewayerrors.Wrap(gatewayerrors.Transport, "write stdin", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// readLoop reads stdout line by line, classifying each JSON object per
// spec §4.1 "Framing": control_response resolves the pending table,
// control_request is pushed verbatim, everything else is a data frame.
// Grounded on manager.go's readLoop (bufio.Scanner, 1MB buffer).
func (t *Transport) readLoop(stdout io.Reader) {
	defer t.data.CloseAll()
	defer close(t.controlResponses)
	defer close(t.inboundControl)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lineCopy := append([]byte(nil), line...)

		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(lineCopy, &probe); err != nil {
			gatewaylog.Warnf("failed to parse stdout line as JSON: %v", err)
			continue
		}

		switch probe.Type {
		case "control_response":
			select {
			case t.controlResponses <- lineCopy:
			default:
				gatewaylog.Warnf("control response queue full, dropping response")
			}
		case "control_request":
			req, err := decodeInboundControlRequest(lineCopy)
			if err != nil {
				gatewaylog.Warnf("failed to decode inbound control request: %v", err)
				continue
			}
			select {
			case t.inboundControl <- req:
			default:
				gatewaylog.Warnf("inbound control queue full, dropping request id=%s", req.RequestID)
			}
		default:
			var frame gatewaytypes.DataFrame
			if err := json.Unmarshal(lineCopy, &frame); err != nil {
				gatewaylog.Warnf("failed to parse data frame, dropping: %v", err)
				continue
			}
			frame.Raw = lineCopy
			t.data.Publish(frame)
		}
	}

	if err := t.cmd.Wait(); err != nil {
		t.exitErr.Store(gatewayerrors.Wrap(gatewayerrors.ClaudeProcess, "claude process exited", err))
	}
}

func decodeInboundControlRequest(raw json.RawMessage) (gatewaytypes.InboundControlRequest, error) {
	var envelope struct {
		Request json.RawMessage `json:"request"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return gatewaytypes.InboundControlRequest{}, err
	}
	body := envelope.Request
	if len(body) == 0 {
		body = raw
	}
	var req gatewaytypes.InboundControlRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return gatewaytypes.InboundControlRequest{}, err
	}
	req.RequestID = gatewaytypes.ExtractRequestID(raw)
	req.Raw = raw
	return req, nil
}

// classifyStderr applies the heuristic pattern matching spec §4.1
// "Stderr policy" calls for: flag common failure shapes for clearer
// diagnostics without attempting full parsing.
func classifyStderr(line string) string {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "command not found"), strings.Contains(lower, "enoent"):
		return "command_not_found"
	case strings.Contains(lower, "unauthorized"), strings.Contains(lower, "auth"):
		return "auth_failure"
	case strings.Contains(lower, "unknown model"), strings.Contains(lower, "model not found"):
		return "unknown_model"
	default:
		return ""
	}
}

func (t *Transport) stderrLoop(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		classification := classifyStderr(line)
		gatewaylog.Errorf("claude stderr: %s", line)
		if t.stderrSink != nil {
			t.stderrSink(line, classification)
		}
	}
}

// Disconnect is idempotent: the first call closes stdin, signals
// termination, and awaits exit (with a grace period then SIGKILL); every
// subsequent call is a no-op, satisfying the idempotence law in spec §8.
func (t *Transport) Disconnect(ctx context.Context) error {
	var outerErr error
	t.disconnectOnce.Do(func() {
		t.disconnected.Store(true)
		close(t.stdinCh)
		_ = t.stdin.Close()
		_ = t.cmd.Process.Signal(syscall.SIGTERM)

		done := make(chan error, 1)
		go func() { done <- t.group.Wait() }()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			gatewaylog.Warnf("claude process did not exit within grace period, killing")
			pid := t.cmd.Process.Pid
			_ = t.cmd.Process.Kill()
			<-done
			if isAlive(pid) {
				gatewaylog.Warnf("claude process pid %d still present in process table after SIGKILL", pid)
			}
		case <-ctx.Done():
			_ = t.cmd.Process.Kill()
			<-done
		}
		t.cancel()
	})
	if err, ok := t.exitErr.Load().(error); ok {
		// Exiting on the SIGTERM sent above is the graceful path.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() && ws.Signal() == syscall.SIGTERM {
				return nil
			}
		}
		outerErr = err
	}
	return outerErr
}

// IsDisconnected reports whether Disconnect has already run.
func (t *Transport) IsDisconnected() bool { return t.disconnected.Load() }

// PID returns the child process's OS process id.
func (t *Transport) PID() int { return t.cmd.Process.Pid }

// isAlive reports whether pid still shows up in the OS process table,
// used to verify a SIGKILL actually landed rather than trusting cmd.Wait
// alone — a zombie entry or a reparented pid can leave Wait hanging past
// the grace period even after the signal was delivered.
func isAlive(pid int) bool {
	proc, err := ps.FindProcess(pid)
	return err == nil && proc != nil
}

// Kill is the best-effort non-graceful teardown used by facades that
// cannot await a graceful Disconnect (e.g. the one-shot facade's
// abandon-mid-stream cleanup).
func (t *Transport) Kill() {
	if t.disconnected.Swap(true) {
		return
	}
	_ = t.cmd.Process.Kill()
	t.cancel()
}
