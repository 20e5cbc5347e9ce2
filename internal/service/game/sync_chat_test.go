package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestUpdatePosition_NotEchoedToSender(t *testing.T) {
	c, _ := newTestCoordinator()

	conn1 := join(t, c, "p1", "main")
	conn2 := join(t, c, "p2", "main")
	conn1.reset()
	conn2.reset()

	moveTo(c, "p1", 4, 5, 6)

	testutil.AssertEqual(t, "sender player_moved", conn1.count(RESP_PLAYER_MOVED), 0)
	evt, ok := conn2.last(RESP_PLAYER_MOVED)
	if !ok {
		t.Fatalf("peer should receive player_moved, got %v", conn2.types())
	}
	moved := evt.(PlayerMovedEvent)
	testutil.AssertEqual(t, "player", moved.PlayerID, "p1")
	testutil.AssertEqual(t, "y", moved.Position.Y, 5.0)
}

func TestUpdatePosition_PartialFields(t *testing.T) {
	c, clock := newTestCoordinator()

	join(t, c, "p1", "main")
	moveTo(c, "p1", 1, 2, 3)
	clock.Advance(time.Second)

	c.Dispatch("p1", RequestWrapper{
		ReqType: REQ_POSITION_UPDATE,
		Data:    []byte(`{"rotation_y":1.5,"animation_state":"climbing"}`),
	})

	p := c.RoomState("main").Players["p1"]
	testutil.AssertEqual(t, "x kept", p.Position.X, 1.0)
	testutil.AssertEqual(t, "z kept", p.Position.Z, 3.0)
	testutil.AssertEqual(t, "rotation", p.Position.RotationY, 1.5)
	testutil.AssertEqual(t, "animation", p.Animation, ANIM_CLIMBING)
	testutil.AssertEqual(t, "last_updated", p.LastUpdated, unixSeconds(clock.Now()))

	c.Dispatch("p1", RequestWrapper{
		ReqType: REQ_POSITION_UPDATE,
		Data:    []byte(`{"animation_state":"moonwalk"}`),
	})
	testutil.AssertEqual(t, "invalid animation ignored", c.RoomState("main").Players["p1"].Animation, ANIM_CLIMBING)
}

func TestUpdatePosition_MalformedPayloadDropped(t *testing.T) {
	c, _ := newTestCoordinator()

	join(t, c, "p1", "main")
	conn2 := join(t, c, "p2", "main")
	conn2.reset()

	c.Dispatch("p1", RequestWrapper{ReqType: REQ_POSITION_UPDATE, Data: []byte(`{"x":"left"}`)})

	testutil.AssertEqual(t, "p2 events", len(conn2.events), 0)
	testutil.AssertEqual(t, "x unchanged", c.RoomState("main").Players["p1"].Position.X, -10.0)
}

func TestHandleChat_EchoedToSender(t *testing.T) {
	c, _ := newTestCoordinator()

	conn1 := join(t, c, "p1", "main")
	conn2 := join(t, c, "p2", "main")

	chat(c, "p1", "hello")

	for name, conn := range map[string]*fakeConn{"sender": conn1, "peer": conn2} {
		evt, ok := conn.last(RESP_CHAT_MESSAGE)
		if !ok {
			t.Fatalf("%s should receive chat_message, got %v", name, conn.types())
		}
		msg := evt.(ChatMessageEvent)
		testutil.AssertEqual(t, name+" text", msg.Message, "hello")
		testutil.AssertEqual(t, name+" username", msg.Username, "Player_p1")
		testutil.AssertEqual(t, name+" timestamp", msg.Timestamp, unixSeconds(testEpoch))
		if msg.ID == "" {
			t.Fatalf("chat message id should be set")
		}
	}
}

func TestHandleChat_DataPayload(t *testing.T) {
	c, _ := newTestCoordinator()

	conn1 := join(t, c, "p1", "main")
	c.Dispatch("p1", RequestWrapper{
		ReqType: REQ_CHAT_MESSAGE,
		Data:    mustMarshal(ChatMessageRequest{Message: "from data"}),
	})

	evt, ok := conn1.last(RESP_CHAT_MESSAGE)
	if !ok {
		t.Fatalf("expected chat_message, got %v", conn1.types())
	}
	testutil.AssertEqual(t, "text", evt.(ChatMessageEvent).Message, "from data")
}

func TestHandleChat_HistoryBounded(t *testing.T) {
	c, _ := newTestCoordinator(WithChatHistoryLimit(3))

	join(t, c, "p1", "main")
	for i := range 5 {
		chat(c, "p1", fmt.Sprintf("msg-%d", i))
	}

	history := c.ChatHistory("main")
	testutil.AssertEqual(t, "history length", len(history), 3)
	testutil.AssertEqual(t, "oldest kept", history[0].Message, "msg-2")
	testutil.AssertEqual(t, "newest", history[2].Message, "msg-4")
	testutil.AssertEqual(t, "unknown room", len(c.ChatHistory("nowhere")), 0)
}

func TestIsEliminatePhrase(t *testing.T) {
	cases := map[string]bool{
		"/ban @bastral":        true,
		"  /BAN @BASTRAL\n":    true,
		"/ban @bastral now":    false,
		"/ban":                 false,
		"please /ban @bastral": false,
	}

	for text, exp := range cases {
		testutil.AssertEqual(t, text, IsEliminatePhrase(text), exp)
	}
}

func TestPickPlayer_SortsCandidates(t *testing.T) {
	candidates := []*Player{{ID: "c"}, {ID: "a"}, {ID: "b"}}

	testutil.AssertEqual(t, "first", pickPlayer(fixedRandom{idx: 0}, candidates).ID, "a")
	testutil.AssertEqual(t, "last", pickPlayer(fixedRandom{idx: 2}, candidates).ID, "c")
	if pickPlayer(fixedRandom{}, nil) != nil {
		t.Fatalf("empty candidate set should yield nil")
	}
}

func TestNewRandom_SeedIsReproducible(t *testing.T) {
	a := NewRandom(42)
	b := NewRandom(42)

	for i := range 10 {
		testutil.AssertEqual(t, fmt.Sprintf("draw %d", i), a.IntN(1000), b.IntN(1000))
	}
}
