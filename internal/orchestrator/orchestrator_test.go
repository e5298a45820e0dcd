package orchestrator

import (
	"encoding/json"
	"testing"

	reversi "github.com/KuramaSyu/reversi-but-modern"
	"github.com/KuramaSyu/reversi-but-modern/internal/dispatch"
	"github.com/KuramaSyu/reversi-but-modern/internal/session"
)

func TestLobbyCreateJoinStart(t *testing.T) {
	o := New()
	lobby := o.LobbyTable()

	createRes := lobby["SessionCreateEvent"][0](1001, dispatch.InMessage{Event: "SessionCreateEvent"})
	if len(createRes) != 1 {
		t.Fatalf("expected one result, got %d", len(createRes))
	}
	data := createRes[0].Out.Data.(map[string]interface{})
	code := data["code"].(string)

	joinRes := lobby["SessionJoinEvent"][0](1002, dispatch.InMessage{
		Event: "SessionJoinEvent", Session: code, CustomID: "alice",
	})
	if len(joinRes) != 1 || joinRes[0].Scope != dispatch.Session {
		t.Fatalf("expected one session-scoped result, got %+v", joinRes)
	}
	joinData := joinRes[0].Out.Data.(map[string]interface{})
	if joinData["custom_id"] != "alice" {
		t.Errorf("expected custom_id to round-trip, got %+v", joinData)
	}

	startRes := lobby["GameStartEvent"][0](1001, dispatch.InMessage{Event: "GameStartEvent", Session: code})
	if len(startRes) != 1 || startRes[0].Out.Status != 200 {
		t.Fatalf("expected GameStartEvent to succeed, got %+v", startRes)
	}
	if !o.Game.Validate(code) {
		t.Error("expected a Game session to exist under the same code")
	}
}

func TestLobbyJoinUnknownSession(t *testing.T) {
	o := New()
	lobby := o.LobbyTable()

	res := lobby["SessionJoinEvent"][0](1001, dispatch.InMessage{Event: "SessionJoinEvent", Session: "ZZZZ"})
	if len(res) != 1 || res[0].Out.Status != 404 {
		t.Fatalf("expected a 404 response, got %+v", res)
	}
}

func TestGameReadyAtTwoPeers(t *testing.T) {
	o := New()
	o.Game.CreateSession("ABCD")
	game := o.GameTable()

	res1 := game["SessionJoinEvent"][0](1001, dispatch.InMessage{
		Event: "SessionJoinEvent", Session: "ABCD", Data: json.RawMessage(`{"custom_id":"p1"}`),
	})
	if len(res1) != 1 {
		t.Fatalf("expected no GameReadyEvent after the first join, got %+v", res1)
	}

	res2 := game["SessionJoinEvent"][0](1002, dispatch.InMessage{
		Event: "SessionJoinEvent", Session: "ABCD", Data: json.RawMessage(`{"custom_id":"p2"}`),
	})
	if len(res2) != 2 {
		t.Fatalf("expected GameReadyEvent plus SessionJoinEvent after the second join, got %+v", res2)
	}
	if res2[0].Out.Event != "GameReadyEvent" {
		t.Errorf("expected GameReadyEvent first, got %q", res2[0].Out.Event)
	}

	if _, ok := o.GameAt("ABCD"); !ok {
		t.Fatal("expected a live game to have been created")
	}
}

func TestThirdPeerCannotJoinFullGame(t *testing.T) {
	o := New()
	o.Game.CreateSession("ABCD")
	game := o.GameTable()

	game["SessionJoinEvent"][0](1001, dispatch.InMessage{Event: "SessionJoinEvent", Session: "ABCD"})
	game["SessionJoinEvent"][0](1002, dispatch.InMessage{Event: "SessionJoinEvent", Session: "ABCD"})

	before, ok := o.GameAt("ABCD")
	if !ok {
		t.Fatal("expected a live game after the second join")
	}
	boardBefore := before.Board.String()

	res := game["SessionJoinEvent"][0](1003, dispatch.InMessage{Event: "SessionJoinEvent", Session: "ABCD"})
	if len(res) != 1 || res[0].Scope != dispatch.Peer || res[0].Out.Status != 400 {
		t.Fatalf("expected a peer-scoped rejection for the third joiner, got %+v", res)
	}

	after, ok := o.GameAt("ABCD")
	if !ok {
		t.Fatal("expected the live game to still exist")
	}
	if after != before {
		t.Error("expected the same *reversi.Game instance, got a freshly constructed one")
	}
	if after.Board.String() != boardBefore {
		t.Error("expected the board to be untouched by the rejected third join")
	}
}

func TestChipPlacedWrongTurnIsPeerScoped(t *testing.T) {
	o := New()
	o.Game.CreateSession("ABCD")
	game := o.GameTable()

	game["SessionJoinEvent"][0](1001, dispatch.InMessage{Event: "SessionJoinEvent", Session: "ABCD"})
	game["SessionJoinEvent"][0](1002, dispatch.InMessage{Event: "SessionJoinEvent", Session: "ABCD"})

	g, _ := o.GameAt("ABCD")
	wrongID := session.PeerID(g.P2)
	if g.Current == reversi.P2 {
		wrongID = session.PeerID(g.P1)
	}

	res := game["ChipPlacedEvent"][0](wrongID, dispatch.InMessage{
		Event: "ChipPlacedEvent", Session: "ABCD", UserID: wrongID,
		Data: json.RawMessage(`{"row":2,"column":4}`),
	})
	if len(res) != 1 || res[0].Scope != dispatch.Peer || res[0].Out.Event != "RuleErrorEvent" {
		t.Fatalf("expected a peer-scoped RuleErrorEvent, got %+v", res)
	}
}

func TestGameDisconnectCascadesToLobby(t *testing.T) {
	o := New()
	o.Lobby.CreateSession("ABCD")
	o.Lobby.AddPeer("ABCD", 1001)
	o.Lobby.AddPeer("ABCD", 1002)
	o.Game.CreateSession("ABCD")
	o.Game.AddPeer("ABCD", 1001)
	o.Game.AddPeer("ABCD", 1002)

	o.GameDisconnect("ABCD", 1001)

	if o.Lobby.Validate("ABCD") {
		t.Error("expected the Lobby session sharing the code to be deleted")
	}
}
