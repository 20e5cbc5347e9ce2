package http

import (
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"banall-be/internal/config"
	"banall-be/internal/service"
	"banall-be/internal/service/game"
	"banall-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-testutil"
	"github.com/vmihailenco/msgpack/v5"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.AppConfig{
		Host:              "127.0.0.1",
		Port:              8000,
		DefaultRoom:       "main",
		HeartbeatInterval: time.Second,
		HeartbeatTimeout:  2 * time.Second,
		SendBuffer:        16,
	}

	roomSvc := service.NewRoomService(game.NewCoordinator(), service.RoomServiceOptions{})
	appState := state.NewAppState(cfg, roomSvc, nil)
	app := NewApp(appState)
	if err := app.Build(); err != nil {
		t.Fatalf("building app: %v", err)
	}

	srv := httptest.NewServer(app)
	t.Cleanup(func() {
		srv.Close()
		appState.Shutdown()
	})

	return srv
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()

	resp, err := nethttp.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	testutil.AssertEqual(t, "status", resp.StatusCode, nethttp.StatusOK)
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decoding %s: %v", url, err)
	}
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// readUntil 读取消息直到出现 respType，返回该消息
func readUntil(t *testing.T, conn *websocket.Conn, respType string) map[string]any {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", respType, err)
		}
		if msg["type"] == respType {
			return msg
		}
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	var out map[string]any
	getJSON(t, srv.URL+"/api/health", &out)

	testutil.AssertEqual(t, "status", out["status"], any("healthy"))
	testutil.AssertEqual(t, "game_rooms", out["game_rooms"], any(0.0))

	var live map[string]any
	getJSON(t, srv.URL+"/health", &live)
	testutil.AssertEqual(t, "liveness", live["status"], any("healthy"))
}

func TestGameState_UnknownRoomIsEmpty(t *testing.T) {
	srv := newTestServer(t)

	var out map[string]any
	getJSON(t, srv.URL+"/api/game_state/nowhere", &out)

	testutil.AssertEqual(t, "room_id", out["room_id"], any("nowhere"))
	testutil.AssertEqual(t, "player_count", out["player_count"], any(0.0))
	testutil.AssertEqual(t, "target_id", out["target_id"], any(nil))

	players, ok := out["players"].(map[string]any)
	if !ok {
		t.Fatalf("players should be an object, got %T", out["players"])
	}
	testutil.AssertEqual(t, "players", len(players), 0)
}

func TestGameState_Msgpack(t *testing.T) {
	srv := newTestServer(t)

	req, err := nethttp.NewRequest(nethttp.MethodGet, srv.URL+"/api/v1/rooms/main", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Accept", CONTENT_TYPE_MSGPACK)

	resp, err := nethttp.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	testutil.AssertEqual(t, "content type", strings.HasPrefix(resp.Header.Get("Content-Type"), CONTENT_TYPE_MSGPACK), true)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}

	var out map[string]any
	if err := msgpack.Unmarshal(body, &out); err != nil {
		t.Fatalf("decoding msgpack: %v", err)
	}
	testutil.AssertEqual(t, "room_id", out["room_id"], any("main"))
}

func TestWebSocket_JoinChatLeave(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "/ws/p1?room=main&name=Alice")
	joined := readUntil(t, alice, game.RESP_ROOM_JOINED)
	testutil.AssertEqual(t, "player_id", joined["player_id"], any("p1"))

	bob := dial(t, srv, "/ws/p2?room=main")
	readUntil(t, bob, game.RESP_ROOM_JOINED)

	playerJoined := readUntil(t, alice, game.RESP_PLAYER_JOINED)
	player := playerJoined["player"].(map[string]any)
	testutil.AssertEqual(t, "joined username", player["username"], any("Player_p2"))

	if err := alice.WriteJSON(map[string]any{"type": game.REQ_CHAT_MESSAGE, "message": "hello"}); err != nil {
		t.Fatalf("sending chat: %v", err)
	}

	echo := readUntil(t, alice, game.RESP_CHAT_MESSAGE)
	testutil.AssertEqual(t, "echo", echo["message"], any("hello"))
	relayed := readUntil(t, bob, game.RESP_CHAT_MESSAGE)
	testutil.AssertEqual(t, "relayed username", relayed["username"], any("Alice"))

	// 格式错误的帧不会断开连接
	if err := bob.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("sending garbage: %v", err)
	}
	if err := bob.WriteJSON(map[string]any{
		"type": game.REQ_POSITION_UPDATE,
		"data": map[string]any{"x": 1.5},
	}); err != nil {
		t.Fatalf("sending position: %v", err)
	}
	moved := readUntil(t, alice, game.RESP_PLAYER_MOVED)
	testutil.AssertEqual(t, "moved player", moved["player_id"], any("p2"))

	alice.Close()

	left := readUntil(t, bob, game.RESP_PLAYER_LEFT)
	testutil.AssertEqual(t, "left player", left["player_id"], any("p1"))
}

func TestWebSocket_ReconnectDisplacesOldConnection(t *testing.T) {
	srv := newTestServer(t)

	first := dial(t, srv, "/ws/p1")
	readUntil(t, first, game.RESP_ROOM_JOINED)

	second := dial(t, srv, "/ws/p1")
	readUntil(t, second, game.RESP_ROOM_JOINED)

	first.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}

	var rooms map[string][]map[string]any
	getJSON(t, srv.URL+"/api/v1/rooms", &rooms)
	testutil.AssertEqual(t, "rooms", len(rooms["rooms"]), 1)
	testutil.AssertEqual(t, "player_count", rooms["rooms"][0]["player_count"], any(1.0))
}
