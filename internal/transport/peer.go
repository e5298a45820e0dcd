// Peer Adapter
//
// Copyright (c) 2021, 2022  Philip Kaludercic
//
// This file is part of go-kgp.
//
// go-kgp is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-kgp is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-kgp. If not, see
// <http://www.gnu.org/licenses/>

package transport

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	reversi "github.com/KuramaSyu/reversi-but-modern"
	"github.com/KuramaSyu/reversi-but-modern/internal/dispatch"
	"github.com/KuramaSyu/reversi-but-modern/internal/orchestrator"
	"github.com/KuramaSyu/reversi-but-modern/internal/session"
)

// wsConn wraps a *websocket.Conn with a write mutex: gorilla's Conn
// forbids concurrent writers, but the read loops of several peers in
// one session may each write to this connection at the same time
// (mirrors the reference server's wsrwc).
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// hub maps live peer ids to their connection, within one endpoint
// (/lobby or /reversi). It is the concrete Sender the dispatcher
// writes through.
type hub struct {
	registry *session.Registry
	mu       sync.Mutex
	conns    map[session.PeerID]*wsConn
}

func newHub(registry *session.Registry) *hub {
	return &hub{registry: registry, conns: make(map[session.PeerID]*wsConn)}
}

func (h *hub) add(id session.PeerID, conn *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = conn
}

func (h *hub) remove(id session.PeerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

func (h *hub) SendToPeer(peer session.PeerID, out dispatch.OutMessage) {
	h.mu.Lock()
	conn, ok := h.conns[peer]
	h.mu.Unlock()
	if !ok {
		return
	}
	if err := conn.writeJSON(out); err != nil {
		reversi.Log.Print(err)
	}
}

func (h *hub) SendToSession(code string, out dispatch.OutMessage) {
	peers, err := h.registry.GetPeers(code)
	if err != nil {
		return
	}
	for _, p := range peers {
		h.SendToPeer(p, out)
	}
}

// handleUpgrade returns an http.HandlerFunc that upgrades the request
// to a websocket, assigns a peer id, binds it into the hub, and runs
// the read loop until disconnect. Registry membership is added by the
// dispatched handlers, not here. isGame selects the
// Game-session disconnect cascade over the Lobby one (§5).
func (s *Server) handleUpgrade(orc *orchestrator.Orchestrator, registry *session.Registry, table dispatch.Table, isGame bool) http.HandlerFunc {
	h := newHub(registry)
	d := dispatch.New(table, h)

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			reversi.Log.Print(err)
			return
		}

		peer := allocatePeerID()
		wrapped := &wsConn{conn: conn}
		h.add(peer, wrapped)
		reversi.Log.Printf("peer %d connected from %s", peer, r.RemoteAddr)

		defer func() {
			h.remove(peer)
			wrapped.Close()
			releasePeerID(peer)

			code := currentCode(registry, peer)
			if code == "" {
				return
			}
			if isGame {
				orc.GameDisconnect(code, peer)
			} else if out, ok := orc.LobbyDisconnect(code, peer); ok {
				h.SendToSession(code, out)
			}
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			d.Dispatch(peer, raw)
		}
	}
}

// currentCode scans registry for the session peer currently belongs
// to. The reference server models this as a direct field on Client;
// here the registry is the single source of truth, so a linear scan
// substitutes for it rather than duplicating state.
func currentCode(registry *session.Registry, peer session.PeerID) string {
	return registry.SessionOf(peer)
}

func allocatePeerID() session.PeerID {
	issued.mu.Lock()
	defer issued.mu.Unlock()
	id := session.NewPeerID(issued.ids)
	issued.ids[id] = true
	return id
}

func releasePeerID(id session.PeerID) {
	issued.mu.Lock()
	defer issued.mu.Unlock()
	delete(issued.ids, id)
}
