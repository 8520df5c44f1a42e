// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package wsbridge exposes the gateway's control-plane command/event
// contract over a websocket, for browser and TUI clients that can't open
// a raw loopback TCP connection. It speaks the identical length-prefixed
// JSON frames internal/gwserver already frames over TCP, carried in binary
// websocket messages (one per Write call, so a frame's length prefix and
// body arrive as two messages) instead of over a byte stream.
package wsbridge

import (
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// streamConn adapts a *websocket.Conn's message framing into the
// io.ReadWriteCloser internal/gwserver.ServeConn expects: each Write call
// becomes one binary websocket message, and Read drains the current
// inbound message before blocking for the next one. gorilla/websocket
// requires a single reader and a single writer goroutine at a time, which
// this adapter's callers (gwserver's one read-loop goroutine plus one
// write-loop goroutine per connection) already satisfy.
type streamConn struct {
	ws *websocket.Conn

	writeMu sync.Mutex

	readMu  sync.Mutex
	current io.Reader

	closeOnce sync.Once
	stopPing  chan struct{}
}

func newStreamConn(ws *websocket.Conn) *streamConn {
	sc := &streamConn{ws: ws, stopPing: make(chan struct{})}
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	go sc.pingLoop()
	return sc
}

func (sc *streamConn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sc.writeMu.Lock()
			err := sc.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			sc.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-sc.stopPing:
			return
		}
	}
}

// Read implements io.Reader by draining one websocket message at a time.
func (sc *streamConn) Read(p []byte) (int, error) {
	sc.readMu.Lock()
	defer sc.readMu.Unlock()

	for sc.current == nil {
		_, r, err := sc.ws.NextReader()
		if err != nil {
			return 0, err
		}
		sc.current = r
	}
	n, err := sc.current.Read(p)
	if err == io.EOF {
		sc.current = nil
		err = nil
		if n == 0 {
			return sc.Read(p)
		}
	}
	return n, err
}

// Write implements io.Writer by sending p as one binary websocket message.
func (sc *streamConn) Write(p []byte) (int, error) {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	if err := sc.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (sc *streamConn) Close() error {
	var err error
	sc.closeOnce.Do(func() {
		close(sc.stopPing)
		err = sc.ws.Close()
	})
	return err
}
