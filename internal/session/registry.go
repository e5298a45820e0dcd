// Session Registry
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

// Package session implements the two keyed peer registries (Lobby and
// Game) described by the reference server: a map from a 4-letter code
// to an ordered list of peer ids, with reject-and-retry generators for
// both codes and peer ids.
package session

import (
	"errors"
	"math/rand"
	"sync"
)

// PeerID is a numeric peer identifier, unique within one Registry.
type PeerID int

// ErrUnknownSession is returned by operations addressing a code this
// Registry has never created.
var ErrUnknownSession = errors.New("session: unknown code")

// ErrCodeTaken is returned by CreateSession when an explicit code is
// already bound in this Registry.
var ErrCodeTaken = errors.New("session: code already in use")

// Registry is one namespace of Sessions, keyed by 4-letter code. Lobby
// and Game each get their own Registry; the code is shared only by
// convention (DESIGN NOTES, "session-transfer with duplicate keys").
type Registry struct {
	mu       sync.Mutex
	sessions map[string][]PeerID
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string][]PeerID)}
}

const codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomCode() string {
	b := make([]byte, 4)
	for i := range b {
		b[i] = codeLetters[rand.Intn(len(codeLetters))]
	}
	return string(b)
}

// CreateSession generates a fresh code, or adopts the given code if it
// is not already used in this Registry. An empty code requests
// generation. Reject-and-retry: collisions on a generated code are
// resampled; a collision on an explicitly requested code is an error.
func (r *Registry) CreateSession(code string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if code != "" {
		if _, ok := r.sessions[code]; ok {
			return "", ErrCodeTaken
		}
		r.sessions[code] = nil
		return code, nil
	}

	for {
		code = randomCode()
		if _, ok := r.sessions[code]; !ok {
			r.sessions[code] = nil
			return code, nil
		}
	}
}

// AddPeer appends peer to the session named by code. It reports
// ErrUnknownSession if no such session exists.
func (r *Registry) AddPeer(code string, peer PeerID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers, ok := r.sessions[code]
	if !ok {
		return ErrUnknownSession
	}
	r.sessions[code] = append(peers, peer)
	return nil
}

// RemovePeer removes peer from the session named by code. Unless
// keepEmpty is set, a session left with no peers is deleted and the
// return value reports that deletion. RemovePeer on an unknown code is
// a silent no-op (a peer may race a session teardown).
func (r *Registry) RemovePeer(code string, peer PeerID, keepEmpty bool) (deleted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers, ok := r.sessions[code]
	if !ok {
		return false
	}

	filtered := peers[:0]
	for _, p := range peers {
		if p != peer {
			filtered = append(filtered, p)
		}
	}
	r.sessions[code] = filtered

	if len(filtered) == 0 && !keepEmpty {
		delete(r.sessions, code)
		return true
	}
	return false
}

// GetPeers returns the membership sequence for code. The returned
// slice is a copy; callers may not mutate Registry state through it.
func (r *Registry) GetPeers(code string) ([]PeerID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers, ok := r.sessions[code]
	if !ok {
		return nil, ErrUnknownSession
	}
	out := make([]PeerID, len(peers))
	copy(out, peers)
	return out, nil
}

// Validate reports whether code names a live session in this
// Registry.
func (r *Registry) Validate(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[code]
	return ok
}

// SessionOf returns the code of the session peer currently belongs
// to, or "" if it belongs to none. Used by the peer adapter to find
// the session to tear down on disconnect, since Registry is the only
// place membership is recorded.
func (r *Registry) SessionOf(peer PeerID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, peers := range r.sessions {
		for _, p := range peers {
			if p == peer {
				return code
			}
		}
	}
	return ""
}

// Delete removes code outright, regardless of membership. Used for
// the disconnection cascade (Lobby session sharing a Game's code).
func (r *Registry) Delete(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, code)
}

// NewPeerID samples a peer id in 1000..9999, rejecting and resampling
// on collision within this Registry's already-issued ids. issued is
// supplied by the caller (typically the peer adapter, which is the
// sole owner of the id-to-peer mapping); Registry itself only stores
// PeerID values, not identity.
func NewPeerID(issued map[PeerID]bool) PeerID {
	for {
		id := PeerID(1000 + rand.Intn(9000))
		if !issued[id] {
			return id
		}
	}
}
