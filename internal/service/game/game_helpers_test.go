package game

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type fakeConn struct {
	events  []Event
	closed  bool
	sendErr error
}

func (fc *fakeConn) Send(evt Event) error {
	if fc.sendErr != nil {
		return fc.sendErr
	}
	fc.events = append(fc.events, evt)
	return nil
}

func (fc *fakeConn) Close() error {
	fc.closed = true
	return nil
}

func (fc *fakeConn) types() []string {
	types := make([]string, 0, len(fc.events))
	for _, evt := range fc.events {
		types = append(types, evt.EventType())
	}
	return types
}

func (fc *fakeConn) count(respType string) int {
	n := 0
	for _, evt := range fc.events {
		if evt.EventType() == respType {
			n++
		}
	}
	return n
}

func (fc *fakeConn) last(respType string) (Event, bool) {
	for i := len(fc.events) - 1; i >= 0; i-- {
		if fc.events[i].EventType() == respType {
			return fc.events[i], true
		}
	}
	return nil, false
}

func (fc *fakeConn) reset() {
	fc.events = nil
}

// fixedRandom 总是选择排序后候选集合中的第 idx 个（越界时取模）
type fixedRandom struct {
	idx int
}

func (fr fixedRandom) IntN(n int) int {
	return fr.idx % n
}

type recordingSink struct {
	rooms []string
	types []string
}

func (rs *recordingSink) RoomEvent(roomID string, evt Event) {
	rs.rooms = append(rs.rooms, roomID)
	rs.types = append(rs.types, evt.EventType())
}

var errBrokenPipe = errors.New("broken pipe")

var testEpoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	now time.Time
}

func (tc *testClock) Now() time.Time {
	return tc.now
}

func (tc *testClock) Advance(d time.Duration) {
	tc.now = tc.now.Add(d)
}

func newTestCoordinator(opts ...Option) (*Coordinator, *testClock) {
	clock := &testClock{now: testEpoch}
	base := []Option{WithRandom(fixedRandom{}), WithClock(clock.Now)}

	return NewCoordinator(append(base, opts...)...), clock
}

func join(t *testing.T, c *Coordinator, playerID, roomID string) *fakeConn {
	t.Helper()

	conn := &fakeConn{}
	c.Join(JoinRequest{PlayerID: playerID, RoomID: roomID, SessionID: playerID + "-s"}, conn)

	return conn
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func moveTo(c *Coordinator, playerID string, x, y, z float64) {
	c.Dispatch(playerID, RequestWrapper{
		ReqType: REQ_POSITION_UPDATE,
		Data:    mustMarshal(map[string]float64{"x": x, "y": y, "z": z}),
	})
}

func chat(c *Coordinator, playerID, message string) {
	c.Dispatch(playerID, RequestWrapper{ReqType: REQ_CHAT_MESSAGE, Message: message})
}

func startGame(c *Coordinator, playerID string) {
	c.Dispatch(playerID, RequestWrapper{ReqType: REQ_START_GAME})
}
