// Orchestrator
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

// Package orchestrator binds the Lobby and Game registries together
// into the single object called for by the reference server's design
// notes ("the lobby<->game linkage is modeled as a single orchestrator
// object holding both registries"), and builds the two event-handler
// tables on top of it.
package orchestrator

import (
	"errors"
	"sync"

	reversi "github.com/KuramaSyu/reversi-but-modern"
	"github.com/KuramaSyu/reversi-but-modern/internal/dispatch"
	"github.com/KuramaSyu/reversi-but-modern/internal/session"
)

// ErrGameExists is returned by TransferToGame when the Game registry
// already has a session bound to that code (transfer is idempotent-safe:
// the second attempt fails rather than silently re-creating).
var ErrGameExists = errors.New("orchestrator: game session already exists")

// ErrGameFull is returned by JoinGame when a third distinct peer
// attempts to join a Game session that already has two (§3, "a Game
// session holds exactly 2 peers once play begins").
var ErrGameFull = errors.New("orchestrator: game session is already full")

// Orchestrator owns the Lobby registry, the Game registry, and the
// live Game instances keyed by code. It is constructed once and
// shared by every accepted connection.
type Orchestrator struct {
	Lobby *session.Registry
	Game  *session.Registry

	mu    sync.Mutex
	games map[string]*reversi.Game
	// joinOrder buffers the peer ids that have joined a Game session
	// before a reversi.Game exists for it, so the second joiner can
	// see the first's id and preserve join order (§4.4, GameReadyEvent).
	joinOrder map[string][]session.PeerID
}

// New returns an Orchestrator with empty Lobby and Game registries.
func New() *Orchestrator {
	return &Orchestrator{
		Lobby:     session.NewRegistry(),
		Game:      session.NewRegistry(),
		games:     make(map[string]*reversi.Game),
		joinOrder: make(map[string][]session.PeerID),
	}
}

// TransferToGame creates a Game session under code, the lobby session
// itself is left intact until its last peer departs or a disconnection
// cascade removes it (§4.3, Transfer).
func (o *Orchestrator) TransferToGame(code string) error {
	if _, err := o.Game.CreateSession(code); err != nil {
		return ErrGameExists
	}
	return nil
}

// GameAt returns the live reversi.Game bound to code, if any.
func (o *Orchestrator) GameAt(code string) (*reversi.Game, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	g, ok := o.games[code]
	return g, ok
}

// JoinGame records peer's arrival at the Game session named by code.
// Once the second distinct peer has joined, it constructs the
// reversi.Game bound to both ids, in join order, and returns it
// together with ready=true. Earlier calls return ready=false. A third
// distinct peer is rejected with ErrGameFull rather than accrued,
// since that would re-run reversi.NewGame and silently replace a live
// game already in progress.
func (o *Orchestrator) JoinGame(code string, peer session.PeerID) (g *reversi.Game, ready bool, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	order := o.joinOrder[code]
	for _, p := range order {
		if p == peer {
			// Re-join by the same peer id, not a new participant.
			return o.games[code], false, nil
		}
	}
	if len(order) >= 2 {
		return nil, false, ErrGameFull
	}
	order = append(order, peer)
	o.joinOrder[code] = order

	if len(order) < 2 {
		return nil, false, nil
	}

	g = reversi.NewGame(reversi.PlayerID(order[0]), reversi.PlayerID(order[1]))
	o.games[code] = g
	return g, true, nil
}

// DropGame deletes code's live reversi.Game, called once the Game
// session backing it is torn down.
func (o *Orchestrator) DropGame(code string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.games, code)
	delete(o.joinOrder, code)
}

// LobbyDisconnect removes peer from the Lobby session named by code.
// If the lobby becomes empty it is deleted; otherwise a
// SessionLeaveEvent batch is returned for the caller to broadcast to
// the remaining peers (§5, Cascades on disconnection).
func (o *Orchestrator) LobbyDisconnect(code string, peer session.PeerID) (dispatch.OutMessage, bool) {
	o.Lobby.RemovePeer(code, peer, false)

	peers, err := o.Lobby.GetPeers(code)
	if err != nil {
		return dispatch.OutMessage{}, false
	}
	return dispatch.OutMessage{
		Event:   "SessionLeaveEvent",
		Status:  200,
		Session: code,
		Data:    map[string]interface{}{"all_users": peers},
	}, true
}

// GameDisconnect removes peer from the Game session named by code. It
// always deletes the Lobby session sharing that code (the cascade);
// if the Game session becomes empty too, its live reversi.Game is
// dropped (§5, Cascades on disconnection).
func (o *Orchestrator) GameDisconnect(code string, peer session.PeerID) {
	o.Lobby.Delete(code)

	deleted := o.Game.RemovePeer(code, peer, false)
	if deleted {
		o.DropGame(code)
	}
}
