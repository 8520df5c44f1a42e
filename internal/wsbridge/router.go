// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package wsbridge

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/jmoyers/harness/internal/gwserver"
	"github.com/jmoyers/harness/internal/logging"
	"github.com/jmoyers/harness/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewRouter builds the loopback HTTP router fronting server's command/
// event contract for non-TCP clients: a websocket upgrade endpoint at
// /ws speaking the identical wire.Command/wire.Reply/wire.EventEnvelope
// frames as the raw TCP listener, plus the Prometheus /metrics endpoint
// the ambient metrics stack exposes on the same router.
func NewRouter(server *gwserver.Server) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", handleWebSocket(server))
	r.Handle("/metrics", metrics.Handler())
	return r
}

func handleWebSocket(server *gwserver.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Logger.Warn().Err(err).Str("component", "wsbridge").Msg("websocket upgrade failed")
			return
		}
		server.ServeConn(newStreamConn(ws))
	}
}
