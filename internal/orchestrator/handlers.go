// Lobby and Game Handler Tables
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

package orchestrator

import (
	"encoding/json"

	reversi "github.com/KuramaSyu/reversi-but-modern"
	"github.com/KuramaSyu/reversi-but-modern/internal/dispatch"
	"github.com/KuramaSyu/reversi-but-modern/internal/session"
)

func peerResult(status int, event, message string, data interface{}) dispatch.Result {
	return dispatch.Result{
		Scope: dispatch.Peer,
		Out: dispatch.OutMessage{
			Event:   event,
			Status:  status,
			Message: message,
			Data:    data,
		},
	}
}

func sessionResult(code string, status int, event string, data interface{}) dispatch.Result {
	return dispatch.Result{
		Scope: dispatch.Session,
		Out: dispatch.OutMessage{
			Event:   event,
			Status:  status,
			Session: code,
			Data:    data,
		},
	}
}

// LobbyTable builds the dispatch.Table for the /lobby endpoint,
// exactly the four handlers enumerated in §4.4.
func (o *Orchestrator) LobbyTable() dispatch.Table {
	t := make(dispatch.Table)

	t.Register("SessionCreateEvent", func(peer session.PeerID, in dispatch.InMessage) []dispatch.Result {
		code, _ := o.Lobby.CreateSession("")
		o.Lobby.AddPeer(code, peer)
		return []dispatch.Result{peerResult(200, "SessionCreateEvent", "", map[string]interface{}{"code": code})}
	})

	t.Register("SessionJoinEvent", func(peer session.PeerID, in dispatch.InMessage) []dispatch.Result {
		if !o.Lobby.Validate(in.Session) {
			return []dispatch.Result{peerResult(404, "SessionJoinEvent", "No such lobby session.", nil)}
		}
		o.Lobby.AddPeer(in.Session, peer)
		peers, _ := o.Lobby.GetPeers(in.Session)
		return []dispatch.Result{sessionResult(in.Session, 200, "SessionJoinEvent", map[string]interface{}{
			"session":   in.Session,
			"user_id":   peer,
			"all_users": peers,
			"custom_id": in.CustomID,
		})}
	})

	t.Register("SessionLeaveEvent", func(peer session.PeerID, in dispatch.InMessage) []dispatch.Result {
		peers, err := o.Lobby.GetPeers(in.Session)
		if err != nil {
			return nil
		}
		return []dispatch.Result{sessionResult(in.Session, 200, "SessionLeaveEvent", map[string]interface{}{"all_users": peers})}
	})

	t.Register("GameStartEvent", func(peer session.PeerID, in dispatch.InMessage) []dispatch.Result {
		if err := o.TransferToGame(in.Session); err != nil {
			return []dispatch.Result{peerResult(400, "GameStartEvent", err.Error(), nil)}
		}
		return []dispatch.Result{sessionResult(in.Session, 200, "GameStartEvent", nil)}
	})

	return t
}

type chipPlacedData struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

type joinData struct {
	CustomID string `json:"custom_id"`
}

// GameTable builds the dispatch.Table for the /reversi endpoint: join
// (with the ready-at-two-peers GameReadyEvent), placement, and the
// diagnostic ErrorEvent echo (§4.4).
func (o *Orchestrator) GameTable() dispatch.Table {
	t := make(dispatch.Table)

	t.Register("SessionJoinEvent", func(peer session.PeerID, in dispatch.InMessage) []dispatch.Result {
		if !o.Game.Validate(in.Session) {
			return []dispatch.Result{peerResult(404, "SessionJoinEvent", "No such game session.", nil)}
		}
		o.Game.AddPeer(in.Session, peer)

		var data joinData
		_ = json.Unmarshal(in.Data, &data)

		g, ready, err := o.JoinGame(in.Session, peer)
		if err != nil {
			return []dispatch.Result{peerResult(400, "SessionJoinEvent", "Game session is already full.", nil)}
		}

		var results []dispatch.Result
		if ready {
			results = append(results, sessionResult(in.Session, 200, "GameReadyEvent", map[string]interface{}{
				"player_id_1": g.P1,
				"player_id_2": g.P2,
			}))
		}
		results = append(results, sessionResult(in.Session, 200, "SessionJoinEvent", map[string]interface{}{
			"session":   in.Session,
			"user_id":   peer,
			"custom_id": data.CustomID,
		}))
		return results
	})

	t.Register("ChipPlacedEvent", func(peer session.PeerID, in dispatch.InMessage) []dispatch.Result {
		g, ok := o.GameAt(in.Session)
		if !ok {
			return []dispatch.Result{peerResult(404, "ChipPlacedEvent", "No such game in progress.", nil)}
		}

		var data chipPlacedData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return []dispatch.Result{peerResult(400, "ChipPlacedEvent", "Invalid JSON Syntax", nil)}
		}

		result, ruleErr := g.Place(reversi.PlayerID(in.UserID), data.Row, data.Column)
		if ruleErr != nil {
			return []dispatch.Result{peerResult(400, "RuleErrorEvent", ruleErr.Message, map[string]interface{}{
				"user_id": ruleErr.UserID,
			})}
		}

		results := []dispatch.Result{sessionResult(in.Session, 200, "ChipPlacedEvent", result.Placed)}
		switch {
		case result.Over != nil:
			results = append(results, sessionResult(in.Session, 200, "GameOverEvent", result.Over))
		case result.Next != nil:
			results = append(results, sessionResult(in.Session, 200, "NextPlayerEvent", result.Next))
		}
		return results
	})

	t.Register("ErrorEvent", func(peer session.PeerID, in dispatch.InMessage) []dispatch.Result {
		return []dispatch.Result{peerResult(400, "ErrorEvent", "echo", in.Data)}
	})

	return t
}
