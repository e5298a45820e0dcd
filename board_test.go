// Reversi Board Implementation Tests
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
// License, version 3, along with go-kgp . If not, see
// <http://www.gnu.org/licenses/>

package reversi

import "testing"

func TestNewBoardLayout(t *testing.T) {
	for i, test := range []struct {
		pattern  StartPattern
		p1, p2   [2][2]int
	}{
		{Diagonal, [2][2]int{{3, 3}, {4, 4}}, [2][2]int{{3, 4}, {4, 3}}},
		{Horizontal, [2][2]int{{3, 3}, {3, 4}}, [2][2]int{{4, 3}, {4, 4}}},
		{Vertical, [2][2]int{{3, 3}, {4, 3}}, [2][2]int{{3, 4}, {4, 4}}},
	} {
		b := NewBoard(test.pattern)
		for _, pos := range test.p1 {
			if got := b.At(pos[0], pos[1]).Owner; got != P1 {
				t.Errorf("test %d: %v should be P1, got %v", i, pos, got)
			}
		}
		for _, pos := range test.p2 {
			if got := b.At(pos[0], pos[1]).Owner; got != P2 {
				t.Errorf("test %d: %v should be P2, got %v", i, pos, got)
			}
		}
		p1, p2 := b.Counts()
		if p1 != 2 || p2 != 2 {
			t.Errorf("test %d: expected 2 discs each, got p1=%d p2=%d", i, p1, p2)
		}
		if b.Turn() != 1 {
			t.Errorf("test %d: expected turn 1 after setup, got %d", i, b.Turn())
		}
	}
}

func TestLegal(t *testing.T) {
	for i, test := range []struct {
		pattern StartPattern
		row     int
		col     int
		player  Owner
		legal   bool
	}{
		// Diagonal: P1 at (3,3),(4,4); P2 at (3,4),(4,3).
		{Diagonal, 2, 4, P1, true},  // flips (3,4)
		{Diagonal, 2, 3, P1, false}, // no P2 run terminating at P1
		{Diagonal, 3, 3, P1, false}, // occupied
		{Diagonal, 0, 0, P1, false}, // nothing adjacent
		{Diagonal, 5, 4, P2, true},  // flips (4,4)
	} {
		b := NewBoard(test.pattern)
		if got := b.Legal(test.row, test.col, test.player); got != test.legal {
			t.Errorf("test %d: Legal(%d,%d,%v) = %v, want %v",
				i, test.row, test.col, test.player, got, test.legal)
		}
	}
}

func TestApplyFlipsAndTurnCount(t *testing.T) {
	b := NewBoard(Diagonal)
	before1, before2 := b.Counts()

	flipped, ok := b.Apply(2, 4, P1)
	if !ok {
		t.Fatal("expected legal move to succeed")
	}
	if len(flipped) != 1 || flipped[0].Row != 3 || flipped[0].Col != 4 {
		t.Fatalf("unexpected flip set: %+v", flipped)
	}

	after1, after2 := b.Counts()
	if after1 != before1+2 { // placed disc + 1 flip
		t.Errorf("P1 count: before=%d after=%d", before1, after1)
	}
	if after2 != before2-1 {
		t.Errorf("P2 count: before=%d after=%d", before2, after2)
	}
	if b.Turn() != 2 {
		t.Errorf("expected turn counter 2 after one move, got %d", b.Turn())
	}
}

func TestApplyIllegalLeavesBoardUnchanged(t *testing.T) {
	b := NewBoard(Diagonal)
	before := b.String()

	_, ok := b.Apply(3, 3, P1) // occupied
	if ok {
		t.Fatal("expected occupied cell to be illegal")
	}
	if b.String() != before {
		t.Error("board state changed after a rejected move")
	}
}

func TestFieldName(t *testing.T) {
	for _, test := range []struct {
		row, col int
		want     string
	}{
		{0, 0, "A8"},
		{7, 0, "A1"},
		{0, 7, "H8"},
		{7, 7, "H1"},
		{3, 4, "E5"},
	} {
		c := Cell{Row: test.row, Col: test.col}
		if got := c.FieldName(); got != test.want {
			t.Errorf("FieldName(%d,%d) = %q, want %q", test.row, test.col, got, test.want)
		}
	}
}

func TestLegalMovesEmptyAtGameOver(t *testing.T) {
	b := NewBoard(Diagonal)
	// Fill the board entirely with P1 except one empty cell: with no P2
	// disc anywhere, no line from that cell can flip.
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			b.cells[r][c].Owner = P1
		}
	}
	b.cells[0][0].Owner = None
	if moves := b.LegalMoves(P1); len(moves) != 0 {
		t.Errorf("expected no legal moves on a full-ish hostile board, got %v", moves)
	}
}
