// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/groupsio/claudegate/internal/gatewayerrors"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// turnGapTimeout is the per-message silence window; two consecutive
// expirations after content has been observed end the turn early,
// mirroring interactive_session.rs's 500ms recv timeout.
const turnGapTimeout = 500 * time.Millisecond

// turnAbsoluteTimeout is the hard ceiling regardless of gaps, mirroring
// interactive_session.rs's 30s total timeout.
const turnAbsoluteTimeout = 30 * time.Second

// maxConsecutiveGaps is how many consecutive silent windows (after
// content has started) are tolerated before the turn is considered
// complete — a fallback for a missing/garbled result frame, never the
// primary completion signal (spec.md §4.3 Open Question decision).
const maxConsecutiveGaps = 2

// StreamDelta is one incremental update surfaced to the chat facade
// while a turn is in flight.
type StreamDelta struct {
	Frame gatewaytypes.DataFrame
}

// AggregatedTurn is the fully assembled result of SendAndCollect: every
// content block accumulated across the turn's assistant messages, plus
// the terminal result frame if one arrived.
type AggregatedTurn struct {
	ContentBlocks []gatewaytypes.ContentBlock
	Result        *gatewaytypes.ResultMessage
	TimedOut      bool
	GapCompleted  bool
}

// SendAndCollect writes userFrame to the session's transport, then
// aggregates the response. The data-channel subscription happens before
// the write, per spec.md §4.6's atomic subscribe-then-send requirement,
// so no frame emitted between write and subscribe can be lost.
func SendAndCollect(ctx context.Context, sess *Session, userFrame gatewaytypes.UserFrame, deltas chan<- StreamDelta) (*AggregatedTurn, error) {
	sub := sess.Transport.Data()
	ch := sub.Subscribe()
	defer sub.Unsubscribe(ch)

	if err := sess.Transport.WriteLine(ctx, userFrame); err != nil {
		return nil, gatewayerrors.Wrap(gatewayerrors.Transport, "write user frame", err)
	}

	turn := &AggregatedTurn{}
	start := time.Now()
	hasContent := false
	consecutiveGaps := 0

	timer := time.NewTimer(turnGapTimeout)
	defer timer.Stop()

	for {
		select {
		case frame, ok := <-ch:
			if !ok {
				return turn, nil
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			consecutiveGaps = 0

			if frame.HasContent() {
				hasContent = true
				appendContent(turn, frame)
			}
			if deltas != nil {
				select {
				case deltas <- StreamDelta{Frame: frame}:
				default:
				}
			}

			if frame.Type == "result" {
				var result gatewaytypes.ResultMessage
				if err := json.Unmarshal(frame.Raw, &result); err == nil {
					turn.Result = &result
					sess.recordUsage(result.Usage)
				}
				return turn, nil
			}

			timer.Reset(turnGapTimeout)

		case <-timer.C:
			consecutiveGaps++
			if hasContent && consecutiveGaps >= maxConsecutiveGaps {
				turn.GapCompleted = true
				return turn, nil
			}
			if time.Since(start) > turnAbsoluteTimeout {
				turn.TimedOut = true
				return turn, gatewayerrors.New(gatewayerrors.Timeout, "turn did not complete within 30s")
			}
			timer.Reset(turnGapTimeout)

		case <-ctx.Done():
			return turn, gatewayerrors.Wrap(gatewayerrors.Timeout, "turn canceled", ctx.Err())
		}
	}
}

func appendContent(turn *AggregatedTurn, frame gatewaytypes.DataFrame) {
	var envelope struct {
		Content []gatewaytypes.ContentBlock `json:"content"`
	}
	if len(frame.Message) == 0 {
		return
	}
	if err := json.Unmarshal(frame.Message, &envelope); err != nil {
		return
	}
	turn.ContentBlocks = append(turn.ContentBlocks, envelope.Content...)
}
