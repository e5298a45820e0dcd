// Game Model
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

package reversi

import (
	"fmt"
	"math/rand"
	"sync"
)

// PlayerID is a peer id (see the session package), used by Game to
// identify its two players without depending on the session package.
type PlayerID int

// Turn records one accepted placement.
type Turn struct {
	Player Owner
	Number int
	Row    int
	Col    int
}

// RuleError is returned, never panicked, when a placement violates
// the rules. It carries the offending player so the dispatcher can
// route it to that peer alone.
type RuleError struct {
	Message string
	UserID  PlayerID
}

func (e *RuleError) Error() string { return e.Message }

func errOccupied(c Cell) *RuleError {
	return &RuleError{Message: fmt.Sprintf("Field %s is already occupied.", c.FieldName())}
}

func errNoChipAround(c Cell) *RuleError {
	return &RuleError{Message: fmt.Sprintf("There is no chip around %s.", c.FieldName())}
}

func errNoSwap() *RuleError {
	return &RuleError{Message: "You need to swap at least one chip."}
}

// SwappedChip is one disc flipped as a consequence of a placement.
type SwappedChip struct {
	Row       int    `json:"row"`
	Col       int    `json:"column"`
	FieldName string `json:"field_name"`
}

// ChipPlaced is the first event of every successful move's batch.
type ChipPlaced struct {
	Row       int           `json:"row"`
	Col       int           `json:"column"`
	FieldName string        `json:"field_name"`
	Swapped   []SwappedChip `json:"swapped_chips"`
	UserID    PlayerID      `json:"user_id"`
}

// NextPlayer closes a move's batch when the game continues.
type NextPlayer struct {
	UserID PlayerID `json:"user_id"`
	Turn   int      `json:"turn"`
	Reason string   `json:"reason,omitempty"`
}

// GameOver closes a move's batch when the game has ended.
type GameOver struct {
	Winner *PlayerID `json:"winner,omitempty"`
	Title  string    `json:"title"`
	Reason string    `json:"reason,omitempty"`
}

// MoveResult is the ordered event batch produced by a successful
// Place call: Placed always fires, followed by exactly one of Next
// or Over.
type MoveResult struct {
	Placed ChipPlaced
	Next   *NextPlayer
	Over   *GameOver
}

// Game wraps a Board with the identities of its two players, whose
// turn it is, the move history and a terminal flag.
type Game struct {
	mu sync.Mutex

	P1, P2  PlayerID
	Current Owner
	Board   *Board
	History []Turn
	Over    bool
}

// NewGame creates a Game bound to the two given player ids, with a
// uniformly random start pattern and a uniformly random first
// player.
func NewGame(p1, p2 PlayerID) *Game {
	current := P1
	if rand.Intn(2) == 1 {
		current = P2
	}
	return &Game{
		P1:      p1,
		P2:      p2,
		Current: current,
		Board:   NewBoard(RandomStartPattern()),
	}
}

// owner maps a player id to its Owner slot, or None if unknown.
func (g *Game) owner(id PlayerID) Owner {
	switch id {
	case g.P1:
		return P1
	case g.P2:
		return P2
	default:
		return None
	}
}

func (g *Game) player(o Owner) PlayerID {
	switch o {
	case P1:
		return g.P1
	case P2:
		return g.P2
	default:
		panic("Illegal owner")
	}
}

// Place validates and applies a placement by player at (row, col).
// The validate-and-apply sequence is one critical section, so two
// concurrent placements can never both succeed against the same
// Game (§5, Concurrency & Resource Model).
func (g *Game) Place(player PlayerID, row, col int) (*MoveResult, *RuleError) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Over {
		return nil, &RuleError{Message: "The game is already over.", UserID: player}
	}

	who := g.owner(player)
	if who == None || who != g.Current {
		return nil, &RuleError{Message: "It's not your turn.", UserID: player}
	}

	if row < 0 || row >= Size || col < 0 || col >= Size {
		return nil, &RuleError{Message: "There is no chip around that field.", UserID: player}
	}

	target := g.Board.At(row, col)
	if target.Owner != None {
		err := errOccupied(target)
		err.UserID = player
		return nil, err
	}

	flipped, ok := g.Board.Apply(row, col, who)
	if !ok {
		var err *RuleError
		if g.Board.AdjacentOccupied(row, col) {
			// A neighbor is occupied, but no direction walk from here
			// terminates at the mover's own disc: there is nothing to
			// swap, as opposed to nothing to swap *against*.
			err = errNoSwap()
		} else {
			err = errNoChipAround(target)
		}
		err.UserID = player
		return nil, err
	}

	turnNo := g.Board.Turn() - 1
	g.History = append(g.History, Turn{Player: who, Number: turnNo, Row: row, Col: col})

	swapped := make([]SwappedChip, len(flipped))
	for i, f := range flipped {
		swapped[i] = SwappedChip{Row: f.Row, Col: f.Col, FieldName: f.FieldName()}
	}

	result := &MoveResult{
		Placed: ChipPlaced{
			Row:       row,
			Col:       col,
			FieldName: target.FieldName(),
			Swapped:   swapped,
			UserID:    player,
		},
	}

	opponent := who.Opponent()
	switch {
	case len(g.Board.LegalMoves(opponent)) > 0:
		g.Current = opponent
		result.Next = &NextPlayer{UserID: g.player(opponent), Turn: g.Board.Turn()}
	case len(g.Board.LegalMoves(who)) > 0:
		// Opponent has no moves, but the mover does: turn stays,
		// opponent is notified of the skip.
		result.Next = &NextPlayer{
			UserID: g.player(who),
			Turn:   g.Board.Turn(),
			Reason: fmt.Sprintf("Player %d is not able to move", g.player(opponent)),
		}
	default:
		g.Over = true
		result.Over = g.outcome()
	}

	return result, nil
}

// outcome compares disc counts to decide the winner of a finished
// game. Called with g.mu held.
func (g *Game) outcome() *GameOver {
	p1, p2 := g.Board.Counts()
	switch {
	case p1 > p2:
		w := g.P1
		return &GameOver{Winner: &w, Title: "Game Over", Reason: "P1 has more discs"}
	case p2 > p1:
		w := g.P2
		return &GameOver{Winner: &w, Title: "Game Over", Reason: "P2 has more discs"}
	default:
		return &GameOver{Title: "Game Over", Reason: "Draw"}
	}
}

// LegalMoves returns the cells where player may legally place a
// disc.
func (g *Game) LegalMoves(player PlayerID) []Cell {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Board.LegalMoves(g.owner(player))
}

// Snapshot is a JSON-shaped description of a Game's current state.
type Snapshot struct {
	Occupied []SnapshotCell `json:"occupied"`
	Current  PlayerID       `json:"current_player"`
	Turn     int            `json:"turn"`
	Over     bool           `json:"game_over"`
}

// SnapshotCell is one occupied cell in a Snapshot.
type SnapshotCell struct {
	Row       int      `json:"row"`
	Col       int      `json:"column"`
	FieldName string   `json:"field_name"`
	Owner     PlayerID `json:"user_id"`
}

// Snapshot describes the Game's current state as JSON-shaped data.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	var occupied []SnapshotCell
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			cell := g.Board.At(r, c)
			if cell.Owner == None {
				continue
			}
			occupied = append(occupied, SnapshotCell{
				Row: r, Col: c,
				FieldName: cell.FieldName(),
				Owner:     g.player(cell.Owner),
			})
		}
	}

	return Snapshot{
		Occupied: occupied,
		Current:  g.player(g.Current),
		Turn:     g.Board.Turn(),
		Over:     g.Over,
	}
}
