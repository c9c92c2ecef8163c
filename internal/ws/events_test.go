package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/models"
)

func TestDecodeClientEvents(t *testing.T) {
	decoder := &EventDecoder{}

	cases := []struct {
		name string
		data string
		want any
	}{
		{"join", `{"type":"join","user_id":7}`, models.JoinEvent{UserID: 7}},
		{"send_message", `{"type":"send_message","receiver_id":2,"message":"hi"}`, models.SendMessageEvent{ReceiverID: 2, Message: "hi"}},
		{"mark_as_read", `{"type":"mark_as_read","sender_id":3}`, models.MarkAsReadEvent{SenderID: 3}},
		{"typing", `{"type":"typing","receiver_id":2}`, models.TypingEvent{ReceiverID: 2}},
		{"stop_typing", `{"type":"stop_typing","receiver_id":2}`, models.StopTypingEvent{ReceiverID: 2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decoder.Decode([]byte(tc.data))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeMissingFieldsYieldZeroValues(t *testing.T) {
	decoder := &EventDecoder{}

	got, err := decoder.Decode([]byte(`{"type":"send_message"}`))
	require.NoError(t, err)
	assert.Equal(t, models.SendMessageEvent{}, got)
}

func TestDecodeMalformedPayload(t *testing.T) {
	decoder := &EventDecoder{}

	_, err := decoder.Decode([]byte(`{not json`))
	require.Error(t, err)
}

func TestDecodeUnknownEventType(t *testing.T) {
	decoder := &EventDecoder{}

	_, err := decoder.Decode([]byte(`{"type":"shrug"}`))
	require.ErrorIs(t, err, ErrUnknownEvent)
}
