// Websocket telemetry sink
//
// Serves a small HTTP endpoint and broadcasts metric records as JSON
// to every connected websocket client. Intended for live plotting of
// sweep progress from a browser.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"buddy-go-migration/pkg/log"
)

const wsWriteTimeout = 2 * time.Second

// WSSink broadcasts metrics to websocket subscribers.
type WSSink struct {
	server   *http.Server
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

type wsRecord struct {
	Metric string `json:"metric"`
	Time   int64  `json:"time"`
	Fields Fields `json:"fields"`
}

// NewWSSink starts an HTTP server on addr serving websocket upgrades
// at /telemetry.
func NewWSSink(addr string, logger *log.Logger) *WSSink {
	if logger == nil {
		logger = log.Default()
	}
	s := &WSSink{
		logger:  logger.Component("telemetry-ws"),
		clients: make(map[*websocket.Conn]struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/telemetry", s.handleUpgrade)
	s.server = &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("server stopped", "error", err)
		}
	}()
	return s
}

func (s *WSSink) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", "error", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("client connected", "remote", conn.RemoteAddr().String())

	// Drain the read side so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

func (s *WSSink) drop(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// Emit broadcasts the metric to all connected clients. Slow or broken
// clients are dropped.
func (s *WSSink) Emit(name string, fields Fields) error {
	payload, err := json.Marshal(wsRecord{
		Metric: name,
		Time:   time.Now().UnixMilli(),
		Fields: fields,
	})
	if err != nil {
		return fmt.Errorf("telemetry: marshal %s: %w", name, err)
	}

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.drop(conn)
		}
	}
	return nil
}

// Close shuts the server down and disconnects all clients.
func (s *WSSink) Close() error {
	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
