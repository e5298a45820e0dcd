package dispatch

import (
	"testing"

	"github.com/KuramaSyu/reversi-but-modern/internal/session"
)

type fakeSender struct {
	toPeer   []OutMessage
	toPeers  []session.PeerID
	toSess   []OutMessage
	sessions []string
}

func (f *fakeSender) SendToPeer(peer session.PeerID, out OutMessage) {
	f.toPeer = append(f.toPeer, out)
	f.toPeers = append(f.toPeers, peer)
}

func (f *fakeSender) SendToSession(code string, out OutMessage) {
	f.toSess = append(f.toSess, out)
	f.sessions = append(f.sessions, code)
}

func TestDispatchMalformedJSON(t *testing.T) {
	sender := &fakeSender{}
	d := New(make(Table), sender)

	d.Dispatch(1001, []byte("not json"))

	if len(sender.toPeer) != 1 || sender.toPeer[0].Status != 400 {
		t.Fatalf("expected a 400 ErrorEvent to the originating peer, got %+v", sender.toPeer)
	}
	if sender.toPeer[0].Event != "ErrorEvent" {
		t.Errorf("expected ErrorEvent, got %q", sender.toPeer[0].Event)
	}
	if sender.toPeer[0].Data != "not json" {
		t.Errorf("expected the raw payload echoed back in Data, got %+v", sender.toPeer[0].Data)
	}
}

func TestDispatchUnknownEvent(t *testing.T) {
	sender := &fakeSender{}
	d := New(make(Table), sender)

	d.Dispatch(1001, []byte(`{"event":"NoSuchEvent"}`))

	if len(sender.toPeer) != 1 || sender.toPeer[0].Status != 404 {
		t.Fatalf("expected a 404 response, got %+v", sender.toPeer)
	}
}

func TestDispatchRoutesByScope(t *testing.T) {
	sender := &fakeSender{}
	table := make(Table)
	table.Register("PingEvent", func(peer session.PeerID, in InMessage) []Result {
		return []Result{
			{Scope: Peer, Out: OutMessage{Event: "PongEvent", Status: 200}},
			{Scope: Session, Out: OutMessage{Event: "BroadcastEvent", Status: 200}},
		}
	})
	d := New(table, sender)

	d.Dispatch(1001, []byte(`{"event":"PingEvent","session":"ABCD"}`))

	if len(sender.toPeer) != 1 || sender.toPeer[0].Event != "PongEvent" {
		t.Fatalf("expected one peer-scoped response, got %+v", sender.toPeer)
	}
	if len(sender.toSess) != 1 || sender.toSess[0].Event != "BroadcastEvent" {
		t.Fatalf("expected one session-scoped response, got %+v", sender.toSess)
	}
	if sender.sessions[0] != "ABCD" {
		t.Errorf("expected session-scoped response to target ABCD, got %q", sender.sessions[0])
	}
}

func TestDispatchMultipleHandlersRunInOrder(t *testing.T) {
	sender := &fakeSender{}
	table := make(Table)
	var order []string
	table.Register("XEvent", func(peer session.PeerID, in InMessage) []Result {
		order = append(order, "first")
		return nil
	})
	table.Register("XEvent", func(peer session.PeerID, in InMessage) []Result {
		order = append(order, "second")
		return nil
	})
	d := New(table, sender)

	d.Dispatch(1001, []byte(`{"event":"XEvent"}`))

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("expected handlers to run in registration order, got %v", order)
	}
}
