package messaging

import (
	"errors"
	"testing"
	"time"

	"banall-be/internal/service/game"

	"github.com/pixil98/go-testutil"
)

func TestNatsServer_MirrorRoundTrip(t *testing.T) {
	ns, err := NewNatsServer(WithPort(-1), WithStartTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	if err := ns.Start(); err != nil {
		t.Fatalf("starting server: %v", err)
	}
	defer ns.Shutdown()

	received := make(chan publishedMsg, 1)
	unsubscribe, err := ns.Subscribe(DEFAULT_SUBJECT_PREFIX+".>", func(subject string, data []byte) {
		received <- publishedMsg{subject: subject, data: data}
	})
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer unsubscribe()

	mirror := NewMirror(ns, "")
	mirror.RoomEvent("main", game.BanFailedEvent{
		EventHeader: game.EventHeader{Type: game.RESP_BAN_FAILED},
		Reason:      "too far",
	})

	select {
	case msg := <-received:
		testutil.AssertEqual(t, "subject", msg.subject, "banall.rooms.main.ban_failed")
		out := decode(t, msg.data)
		testutil.AssertEqual(t, "type", out["type"], any(game.RESP_BAN_FAILED))
	case <-time.After(5 * time.Second):
		t.Fatalf("mirrored event not received")
	}
}

func TestNatsServer_RequiresStart(t *testing.T) {
	ns, err := NewNatsServer(WithPort(-1))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	if err := ns.Publish("x", nil); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
	if _, err := ns.Subscribe("x", func(string, []byte) {}); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
}
