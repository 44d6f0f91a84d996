package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"questify/internal/pkg/errs"
)

var testUpgrader = websocket.Upgrader{}

// startFrameServer runs a websocket endpoint that hands the upgraded
// connection to fn and returns the ws:// URL.
func startFrameServer(t *testing.T, fn func(conn *websocket.Conn)) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade: %v", err)
			return
		}
		fn(conn)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// waitForMessages polls until the channel log holds want messages.
func waitForMessages(t *testing.T, c *Channel, want int) []Message {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		msgs := c.Messages()
		if len(msgs) >= want {
			return msgs
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d messages, have %d", want, len(msgs))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSendWhileNotOpenIsRejected(t *testing.T) {
	c := NewChannel("Rin")

	err := c.Send("hello?")
	if !errs.IsCode(err, errs.ErrChannelNotOpen) {
		t.Fatalf("expected channel-not-open, got %v", err)
	}
	if c.State() != StateDisconnected {
		t.Fatalf("expected disconnected, got %v", c.State())
	}
}

func TestDialFailure(t *testing.T) {
	c := NewChannel("Rin")

	err := c.Connect(context.Background(), "ws://127.0.0.1:1/ws/guild-chat")
	if !errs.IsCode(err, errs.ErrChannelDial) {
		t.Fatalf("expected dial failure, got %v", err)
	}
	if c.State() != StateClosed {
		t.Fatalf("expected closed after failed dial, got %v", c.State())
	}
}

func TestInboundFramesAppendInArrivalOrder(t *testing.T) {
	url := startFrameServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		for _, body := range []string{"first", "second", "third"} {
			payload, _ := json.Marshal(map[string]string{"user": "Kai", "message": body})
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
		// Hold the connection open until the client is done reading.
		_, _, _ = conn.ReadMessage()
	})

	c := NewChannel("Rin")
	if err := c.Connect(context.Background(), url); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	msgs := waitForMessages(t, c, 3)
	want := []string{"first", "second", "third"}
	for i, body := range want {
		if msgs[i].Body != body {
			t.Fatalf("message %d = %q, want %q", i, msgs[i].Body, body)
		}
		if msgs[i].Author != "Kai" {
			t.Fatalf("message %d author = %q", i, msgs[i].Author)
		}
		if i > 0 && msgs[i].Seq <= msgs[i-1].Seq {
			t.Fatalf("sequence ids not increasing: %d then %d", msgs[i-1].Seq, msgs[i].Seq)
		}
		if msgs[i].ReceivedAt.IsZero() {
			t.Fatalf("message %d has no receipt timestamp", i)
		}
	}
}

func TestInboundFrameWithoutAuthorUsesFallback(t *testing.T) {
	url := startFrameServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		payload, _ := json.Marshal(map[string]string{"message": "anonymous hello"})
		_ = conn.WriteMessage(websocket.TextMessage, payload)
		_, _, _ = conn.ReadMessage()
	})

	c := NewChannel("Rin")
	if err := c.Connect(context.Background(), url); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	msgs := waitForMessages(t, c, 1)
	if msgs[0].Author != "Unknown" {
		t.Fatalf("expected fallback author, got %q", msgs[0].Author)
	}
}

func TestSendConstructsOutboundFrame(t *testing.T) {
	received := make(chan frame, 1)
	url := startFrameServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Errorf("outbound frame is not valid JSON: %v", err)
			return
		}
		received <- f
	})

	c := NewChannel("Rin")
	if err := c.Connect(context.Background(), url); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if err := c.Send("for the guild"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case f := <-received:
		if f.User != "Rin" || f.Message != "for the guild" {
			t.Fatalf("unexpected frame: %+v", f)
		}
		if f.Timestamp == "" {
			t.Fatal("expected a timestamp on the outbound frame")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the frame")
	}
}

func TestCloseReleasesConnection(t *testing.T) {
	url := startFrameServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		_, _, _ = conn.ReadMessage()
	})

	c := NewChannel("Rin")
	if err := c.Connect(context.Background(), url); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	c.Close()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done never fired after Close")
	}

	if c.State() != StateClosed {
		t.Fatalf("expected closed, got %v", c.State())
	}
	if err := c.Send("too late"); !errs.IsCode(err, errs.ErrChannelNotOpen) {
		t.Fatalf("expected channel-not-open after close, got %v", err)
	}

	// Close is idempotent.
	c.Close()
}

func TestRemoteCloseIsTerminal(t *testing.T) {
	url := startFrameServer(t, func(conn *websocket.Conn) {
		_ = conn.Close()
	})

	c := NewChannel("Rin")
	if err := c.Connect(context.Background(), url); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done never fired after remote close")
	}

	if c.State() != StateClosed {
		t.Fatalf("expected closed, got %v", c.State())
	}
	if err := c.Send("anyone?"); !errs.IsCode(err, errs.ErrChannelNotOpen) {
		t.Fatalf("expected channel-not-open, got %v", err)
	}
}

func TestOutboundRateLimit(t *testing.T) {
	url := startFrameServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := NewChannel("Rin")
	if err := c.Connect(context.Background(), url); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	// Exhaust the burst budget; the next send must be rejected locally.
	var limited bool
	for i := 0; i < sendBurst+2; i++ {
		if err := c.Send("spam"); errs.IsCode(err, errs.ErrSendRateLimited) {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected the local rate limit to reject a burst of sends")
	}
}
