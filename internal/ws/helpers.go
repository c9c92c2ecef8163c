package ws

import (
	"crypto/rand"
	"encoding/hex"
)

// newConnID returns a random identifier used to correlate a connection's
// lifecycle events.
func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
