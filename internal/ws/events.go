package ws

import (
	"errors"

	"github.com/valyala/fastjson"

	"messenger-service/internal/models"
)

var ErrUnknownEvent = errors.New("unknown event type")

// EventDecoder parses inbound client events into their tagged variants.
// Malformed payloads come back as errors so the caller can drop them.
type EventDecoder struct {
	pool fastjson.ParserPool
}

// Decode parses one websocket text frame.
func (d *EventDecoder) Decode(data []byte) (any, error) {
	p := d.pool.Get()
	defer d.pool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, err
	}

	switch string(v.GetStringBytes("type")) {
	case "join":
		return models.JoinEvent{UserID: v.GetInt("user_id")}, nil
	case "send_message":
		return models.SendMessageEvent{
			ReceiverID: v.GetInt("receiver_id"),
			Message:    string(v.GetStringBytes("message")),
		}, nil
	case "mark_as_read":
		return models.MarkAsReadEvent{SenderID: v.GetInt("sender_id")}, nil
	case "typing":
		return models.TypingEvent{ReceiverID: v.GetInt("receiver_id")}, nil
	case "stop_typing":
		return models.StopTypingEvent{ReceiverID: v.GetInt("receiver_id")}, nil
	default:
		return nil, ErrUnknownEvent
	}
}
