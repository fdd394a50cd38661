// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cleandoc/internal/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The service runs on an internal network; the UI and API share
		// an origin but operators also connect from scripts.
		return true
	},
}

const (
	logPingInterval = 30 * time.Second
	logWriteTimeout = 10 * time.Second
	logReadTimeout  = 60 * time.Second
)

// HandleLogSocket streams live log lines over a websocket (GET /ws/logs).
// Each client gets its own subscription; slow clients miss lines instead
// of stalling the logger.
func HandleLogSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	loggerInstance := logger.GetDefault()
	clientChan, unsubscribeChan := loggerInstance.Subscribe()
	if clientChan == nil {
		writeError(w, http.StatusInternalServerError, "log stream unavailable")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		loggerInstance.Unsubscribe(unsubscribeChan)
		logger.Warnf("[WS] failed to upgrade log stream connection: %v", err)
		return
	}
	defer conn.Close()
	defer loggerInstance.Unsubscribe(unsubscribeChan)

	logger.Debugf("[WS] log stream client connected: %s", r.RemoteAddr)

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(logReadTimeout))
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(logReadTimeout))

	// Drain incoming frames so control messages are processed and client
	// closes are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			conn.SetReadDeadline(time.Now().Add(logReadTimeout))
		}
	}()

	pingTicker := time.NewTicker(logPingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case logLine, ok := <-clientChan:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(logWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(logLine)); err != nil {
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(logWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
