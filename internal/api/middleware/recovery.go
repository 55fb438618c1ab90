// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/groupsio/claudegate/internal/gatewaylog"
)

// Recovery is middleware that recovers from a handler panic, logs it
// through the gateway's own logger, and answers 500 with a fixed JSON
// error envelope whose code is INTERNAL_ERROR (handlers.ErrInternalError).
// This body has no meta block and differs from the one
// handlers.WriteGatewayError writes for gatewayerrors.Internal, whose
// code is "internal".
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				gatewaylog.Errorf("panic recovered handling %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
