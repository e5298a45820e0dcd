// Event Dispatcher
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

// Package dispatch implements the event-name-keyed handler table
// described by the reference server's design notes: no reflection, no
// metaprogramming, just an explicit map built at construction time.
package dispatch

import (
	"encoding/json"

	"github.com/KuramaSyu/reversi-but-modern/internal/session"
)

// Scope controls how far a handler's response is fanned out.
type Scope int

const (
	// Peer delivers the response to the originating peer only.
	Peer Scope = iota
	// Session delivers the response to every peer of the named session.
	Session
)

// InMessage is a client→server event envelope. CustomID is only ever
// populated for the Lobby SessionJoinEvent, whose custom_id field is
// sent top-level rather than nested under data (§4.4).
type InMessage struct {
	Event    string          `json:"event"`
	Session  string          `json:"session,omitempty"`
	UserID   session.PeerID  `json:"user_id,omitempty"`
	CustomID string          `json:"custom_id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// OutMessage is a server→client event envelope.
type OutMessage struct {
	Event   string      `json:"event"`
	Status  int         `json:"status"`
	Session string      `json:"session,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Result is what a Handler returns: the payload to send and the scope
// to send it at.
type Result struct {
	Out   OutMessage
	Scope Scope
}

// Handler processes one parsed InMessage, in the context of the peer
// that sent it, and returns zero or more Results. Multiple handlers
// may be registered under one event name; they run in registration
// order and their Results are concatenated.
type Handler func(peer session.PeerID, in InMessage) []Result

// Table is an explicit event-name to handler-list map, built once at
// construction and never mutated afterward.
type Table map[string][]Handler

// Register appends handler to the handler list for name, preserving
// the order handlers were added in.
func (t Table) Register(name string, handler Handler) {
	t[name] = append(t[name], handler)
}

// Sender delivers an OutMessage to every peer in scope. A Dispatcher
// is constructed with one; it is the only point where dispatch talks
// to the transport layer.
type Sender interface {
	SendToPeer(peer session.PeerID, out OutMessage)
	SendToSession(code string, out OutMessage)
}

// Dispatcher binds a handler Table to a Sender.
type Dispatcher struct {
	Table  Table
	Sender Sender
}

// New returns a Dispatcher bound to table and sender.
func New(table Table, sender Sender) *Dispatcher {
	return &Dispatcher{Table: table, Sender: sender}
}

// Dispatch parses raw as an InMessage and routes it to every handler
// registered for its event name, delivering each Result per its
// Scope. A JSON parse failure is reported to the originating peer as
// an ErrorEvent (status 400) rather than propagated as a Go error:
// handler-level faults never escape the dispatcher (§7, ParseError).
func (d *Dispatcher) Dispatch(peer session.PeerID, raw []byte) {
	var in InMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		d.Sender.SendToPeer(peer, OutMessage{
			Event:   "ErrorEvent",
			Status:  400,
			Message: "Invalid JSON Syntax",
			Data:    string(raw),
		})
		return
	}

	handlers, ok := d.Table[in.Event]
	if !ok {
		d.Sender.SendToPeer(peer, OutMessage{
			Event:   "ErrorEvent",
			Status:  404,
			Message: "Unknown event: " + in.Event,
		})
		return
	}

	for _, h := range handlers {
		for _, res := range h(peer, in) {
			switch res.Scope {
			case Session:
				d.Sender.SendToSession(in.Session, res.Out)
			default:
				d.Sender.SendToPeer(peer, res.Out)
			}
		}
	}
}
