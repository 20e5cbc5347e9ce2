package messaging

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"banall-be/internal/service/game"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const DEFAULT_SUBJECT_PREFIX = "banall.rooms"

type Publisher interface {
	Publish(subject string, data []byte) error
}

// MirrorMessage 是发布到总线上的消息体，使用 msgpack 编码，字段名与 WebSocket 下行消息一致
type MirrorMessage struct {
	RoomID      string     `json:"room_id"`
	Type        string     `json:"type"`
	PublishedAt float64    `json:"published_at"`
	Event       game.Event `json:"event"`
}

// Mirror 把每一次房间广播复制一份发布到 <prefix>.<room>.<type>。
// 它实现 game.EventSink，在房间协程中被同步调用；发布失败只记录日志
type Mirror struct {
	pub    Publisher
	prefix string
	now    func() time.Time
}

func NewMirror(pub Publisher, prefix string) *Mirror {
	if prefix == "" {
		prefix = DEFAULT_SUBJECT_PREFIX
	}

	return &Mirror{
		pub:    pub,
		prefix: strings.TrimSuffix(prefix, "."),
		now:    time.Now,
	}
}

func (m *Mirror) Subject(roomID, eventType string) string {
	return m.prefix + "." + subjectToken(roomID) + "." + subjectToken(eventType)
}

func (m *Mirror) RoomEvent(roomID string, evt game.Event) {
	data, err := EncodeMsgpack(MirrorMessage{
		RoomID:      roomID,
		Type:        evt.EventType(),
		PublishedAt: float64(m.now().UnixNano()) / float64(time.Second),
		Event:       evt,
	})
	if err != nil {
		zap.L().Warn(
			"编码房间事件失败",
			zap.String("room_id", roomID),
			zap.String("event", evt.EventType()),
			zap.Error(err),
		)
		return
	}

	subject := m.Subject(roomID, evt.EventType())
	if err := m.pub.Publish(subject, data); err != nil {
		zap.L().Warn(
			"发布房间事件失败",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

// EncodeMsgpack 按 json 标签编码，保证与 JSON 下行消息的字段名一致
func EncodeMsgpack(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("msgpack 编码失败: %w", err)
	}

	return buf.Bytes(), nil
}

// subject 中的 '.' 是层级分隔符，'*' 和 '>' 是通配符，空白不允许出现
func subjectToken(s string) string {
	if s == "" {
		return "_"
	}

	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}
