package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"messenger-service/internal/models"
)

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())
	conn := &websocket.Conn{}

	hub.Register(1, conn, ConnInfo{ConnID: "a"})
	if hub.HandleCount(1) != 1 {
		t.Fatalf("expected one handle after register")
	}

	hub.Unregister(1, conn)
	if hub.HandleCount(1) != 0 {
		t.Fatalf("expected no handles after unregister")
	}
	if len(hub.rooms) != 0 {
		t.Fatalf("expected empty room map after last handle left")
	}
}

func TestHubMultipleHandlesPerUser(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())
	tab1 := &websocket.Conn{}
	tab2 := &websocket.Conn{}

	hub.Register(1, tab1, ConnInfo{ConnID: "tab1"})
	hub.Register(1, tab2, ConnInfo{ConnID: "tab2"})
	if hub.HandleCount(1) != 2 {
		t.Fatalf("expected two handles for the same user")
	}

	// re-registering the same handle is idempotent
	hub.Register(1, tab1, ConnInfo{ConnID: "tab1"})
	if hub.HandleCount(1) != 2 {
		t.Fatalf("expected re-register to be a no-op")
	}

	hub.Unregister(1, tab1)
	if hub.HandleCount(1) != 1 {
		t.Fatalf("expected one handle after closing one tab")
	}
}

func TestHubHandleCountOfflineUser(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())
	if hub.HandleCount(42) != 0 {
		t.Fatalf("expected zero handles for unknown user")
	}
}

func TestPushToUserConcurrentSenders(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())
	up := websocket.Upgrader{}
	registered := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		hub.Register(42, conn, ConnInfo{ConnID: "c", UserID: 42})
		close(registered)
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()
	<-registered

	// many read loops delivering to the same recipient at once
	const senders = 50
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hub.PushToUser(42, models.ServerEvent{Type: models.EventTyping, SenderID: i + 1})
		}(i)
	}
	wg.Wait()

	for i := 0; i < senders; i++ {
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := client.ReadMessage(); err != nil {
			t.Fatalf("missing frame %d: %v", i, err)
		}
	}
	if hub.HandleCount(42) != 1 {
		t.Fatalf("expected the handle to survive concurrent fan-out")
	}
}
