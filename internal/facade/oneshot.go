// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package facade exposes the two consumer-facing entry points:
// OneShot (stateless, one CLI process per call) and Interactive (pooled
// sessions via internal/session). Grounded on
// internal/api/handlers/claude.go's serveSession (subscribe-then-send,
// non-blocking read pump) and
// original_source/claude-code-sdk-rs/src/interactive.rs's
// InteractiveClient.
package facade

import (
	"context"
	"encoding/json"
	"time"

	"github.com/groupsio/claudegate/internal/claudeproc"
	"github.com/groupsio/claudegate/internal/gatewayerrors"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// disconnectGrace bounds how long OneShot waits for a clean teardown
// before Transport.Disconnect force-kills the child.
const disconnectGrace = 5 * time.Second

func unmarshalResult(frame gatewaytypes.DataFrame, result *gatewaytypes.ResultMessage) error {
	return json.Unmarshal(frame.Raw, result)
}

// OneShot runs a single print-mode CLI invocation with no persistent
// session state.
type OneShot struct {
	CLIPath string
}

// Run spawns the CLI with --print --, streams until the terminal result
// frame, and disconnects. A background goroutine guarantees the child
// is killed exactly once even if the caller abandons the call mid-stream
// (spec.md §4.6).
func (o OneShot) Run(ctx context.Context, opts claudeproc.Options, onDelta func(gatewaytypes.DataFrame)) (*gatewaytypes.ResultMessage, error) {
	opts.PrintMode = true
	opts.InputFormatStreamJSON = false

	transport, err := claudeproc.Spawn(ctx, o.CLIPath, opts, nil)
	if err != nil {
		return nil, err
	}

	ch := transport.Data().Subscribe()
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		select {
		case <-done:
		default:
			transport.Kill()
		}
	}()
	defer close(done)
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), disconnectGrace)
		defer cancel()
		_ = transport.Disconnect(disconnectCtx)
	}()

	for frame := range ch {
		if onDelta != nil {
			onDelta(frame)
		}
		if frame.Type == "result" {
			var result gatewaytypes.ResultMessage
			if err := unmarshalResult(frame, &result); err != nil {
				return nil, gatewayerrors.Wrap(gatewayerrors.Parse, "decode result frame", err)
			}
			return &result, nil
		}
	}

	return nil, gatewayerrors.New(gatewayerrors.ClaudeProcess, "claude process exited before a result frame was seen")
}
