// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// snapshot is the JSON view of the model published to monitoring
// clients; it deliberately exposes more detail than a real heater's
// W-BUS status ever would, since this is a bench/debug aid.
type snapshot struct {
	State       string  `json:"state"`
	Scenario    string  `json:"scenario"`
	TempC       float64 `json:"temp_c"`
	VoltageMV   uint16  `json:"voltage_mv"`
	PowerW      float64 `json:"power_w"`
	CombustionRPM uint16 `json:"combustion_fan_rpm"`
	Flame       bool    `json:"flame"`
	Time        string  `json:"time"`
}

func (m *model) snapshot(now time.Time) snapshot {
	return snapshot{
		State:         m.state.String(),
		Scenario:      m.scenario.String(),
		TempC:         m.tempC,
		VoltageMV:     m.voltageMV,
		PowerW:        float64(m.powerX10) / 10,
		CombustionRPM: m.fanRPM,
		Flame:         m.flame,
		Time:          now.UTC().Format(time.RFC3339),
	}
}

// statusBroadcaster fans out model snapshots to every connected
// WebSocket monitor, following the broad shape of the teacher's
// WebSocketConnection but as a server rather than a client, since
// here the simulator is the thing being observed.
type statusBroadcaster struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newStatusBroadcaster() *statusBroadcaster {
	return &statusBroadcaster{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]struct{}),
	}
}

func (b *statusBroadcaster) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("simulator: websocket upgrade: %v", err)
		return
	}
	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	// Drain and discard anything the client sends; this is a
	// publish-only monitoring feed.
	go func() {
		defer b.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (b *statusBroadcaster) drop(conn *websocket.Conn) {
	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	conn.Close()
}

func (b *statusBroadcaster) publish(s snapshot) {
	payload, err := json.Marshal(s)
	if err != nil {
		log.Printf("simulator: marshal snapshot: %v", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(b.clients, conn)
		}
	}
}
