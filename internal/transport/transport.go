// Web and Websocket Interface
//
// Copyright (c) 2021  Philip Kaludercic
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

// Package transport is the HTTP/WebSocket adapter: it upgrades
// /lobby and /reversi, serves the three plain HTTP endpoints, and
// wraps each websocket.Conn behind the peer adapter (§4.5, §6).
package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	reversi "github.com/KuramaSyu/reversi-but-modern"
	"github.com/KuramaSyu/reversi-but-modern/internal/auth"
	"github.com/KuramaSyu/reversi-but-modern/internal/orchestrator"
	"github.com/KuramaSyu/reversi-but-modern/internal/serverconf"
	"github.com/KuramaSyu/reversi-but-modern/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is a serverconf.Manager running the HTTP/WS listener.
type Server struct {
	Conf *serverconf.WebConf
	Auth *auth.Service

	server *http.Server
}

func (s *Server) String() string { return "http/ws listener" }

func cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			return
		}
		next(w, r)
	}
}

// Start implements serverconf.Manager: it builds the peer adapters
// for /lobby and /reversi bound to orc, registers the plain HTTP
// endpoints, and begins serving in the background.
func (s *Server) Start(orc *orchestrator.Orchestrator) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/create_session", cors(s.handleCreateSession(orc)))
	mux.HandleFunc("/login", cors(s.handleLogin))
	mux.HandleFunc("/register", cors(s.handleRegister))
	mux.HandleFunc("/lobby", cors(s.handleUpgrade(orc, orc.Lobby, orc.LobbyTable(), false)))
	mux.HandleFunc("/reversi", cors(s.handleUpgrade(orc, orc.Game, orc.GameTable(), true)))

	addr := fmt.Sprintf("%s:%d", s.Conf.Host, s.Conf.Port)
	s.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		reversi.Log.Printf("listening on %s", addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			reversi.Log.Print(err)
		}
	}()
	return nil
}

// Shutdown implements serverconf.Manager.
func (s *Server) Shutdown() {
	if s.server != nil {
		s.server.Close()
	}
}

func (s *Server) handleCreateSession(orc *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := orc.Lobby.CreateSession("")
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, 200, map[string]interface{}{
			"status": 200,
			"data": map[string]string{
				"code": code,
				"link": fmt.Sprintf("%s://%s/lobby/%s", scheme(r), r.Host, code),
			},
		})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	token, err := s.Auth.Login(r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		writeJSON(w, 400, map[string]interface{}{"status": 400, "message": err.Error()})
		return
	}
	writeJSON(w, 200, map[string]interface{}{"status": 200, "data": map[string]string{"token": token}})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	token, err := s.Auth.Register(r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		writeJSON(w, 400, map[string]interface{}{"status": 400, "message": err.Error()})
		return
	}
	writeJSON(w, 200, map[string]interface{}{"status": 200, "data": map[string]string{"token": token}})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// issued tracks peer ids handed out across both endpoints, so the two
// registries never collide on identity even though they are separate
// Registry values (§4.3, Peer-id generation).
var issued = struct {
	mu  sync.Mutex
	ids map[session.PeerID]bool
}{ids: make(map[session.PeerID]bool)}
