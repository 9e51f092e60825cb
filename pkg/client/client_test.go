package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/termchat-dev/termchat/pkg/ascii"
	"github.com/termchat-dev/termchat/pkg/protocol"
	"github.com/termchat-dev/termchat/pkg/server"
)

func startRelay(t *testing.T) string {
	t.Helper()

	srv := server.New(nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		ts.Close()
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dialClient(t *testing.T, url, username string) *Client {
	t.Helper()

	c, err := Dial(context.Background(), Config{
		URL:      url,
		Username: username,
		ID:       uuid.New(),
	})
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// waitFor reads from the client until a message of the wanted kind
// arrives.
func waitFor(t *testing.T, c *Client, kind protocol.Kind) protocol.Message {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case m, ok := <-c.Recv():
			if !ok {
				t.Fatalf("connection closed while waiting for %s", kind)
			}
			if m.Kind() == kind {
				return m
			}
		case <-deadline:
			t.Fatalf("no %s within 2s", kind)
		}
	}
}

func TestJoinChatRoundTrip(t *testing.T) {
	url := startRelay(t)

	alice := dialClient(t, url, "alice")
	bob := dialClient(t, url, "bob")

	info := waitFor(t, alice, protocol.KindServerInfo).(*protocol.ServerInfo)
	if info.RoomName == "" {
		t.Error("ServerInfo has no room name")
	}
	list := waitFor(t, bob, protocol.KindUserList).(*protocol.UserList)
	if len(list.Users) == 0 {
		t.Error("bob's seed UserList is empty")
	}

	if err := alice.SendChat("hello"); err != nil {
		t.Fatalf("SendChat() error: %v", err)
	}
	for name, c := range map[string]*Client{"alice": alice, "bob": bob} {
		chat := waitFor(t, c, protocol.KindChat).(*protocol.Chat)
		if chat.Username != "alice" || chat.Text != "hello" {
			t.Errorf("%s received %+v; want alice's hello", name, chat)
		}
		if chat.ID != alice.ID() {
			t.Errorf("%s received chat from %s; want %s", name, chat.ID, alice.ID())
		}
	}
}

func TestVideoReachesPeer(t *testing.T) {
	url := startRelay(t)

	alice := dialClient(t, url, "alice")
	bob := dialClient(t, url, "bob")
	waitFor(t, bob, protocol.KindUserList)

	alice.StartVideo(8, 6, 30)
	defer alice.StopVideo()

	vf := waitFor(t, bob, protocol.KindVideoFrame).(*protocol.VideoFrame)
	if vf.ID != alice.ID() {
		t.Errorf("frame from %s; want alice", vf.ID)
	}
	frame, err := ascii.Unmarshal(vf.Frame)
	if err != nil {
		t.Fatalf("Unmarshal(frame) error: %v", err)
	}
	if frame.Width != 8 || frame.Height != 6 {
		t.Errorf("frame is %dx%d; want 8x6", frame.Width, frame.Height)
	}
}

func TestCloseAnnouncesDeparture(t *testing.T) {
	url := startRelay(t)

	alice := dialClient(t, url, "alice")
	bob := dialClient(t, url, "bob")
	waitFor(t, bob, protocol.KindUserList)

	aliceID := alice.ID()
	alice.Close()

	leave := waitFor(t, bob, protocol.KindLeave).(*protocol.Leave)
	if leave.ID != aliceID {
		t.Errorf("Leave.ID = %s; want alice", leave.ID)
	}
	list := waitFor(t, bob, protocol.KindUserList).(*protocol.UserList)
	for _, u := range list.Users {
		if u.ID == aliceID {
			t.Error("alice still present in roster after Close")
		}
	}

	select {
	case <-alice.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done() not closed after Close")
	}
	if err := alice.SendChat("too late"); err != ErrClientClosed {
		t.Errorf("SendChat after Close = %v; want ErrClientClosed", err)
	}
}

func TestDialBadURL(t *testing.T) {
	_, err := Dial(context.Background(), Config{
		URL:      "ws://127.0.0.1:1/ws",
		Username: "alice",
	})
	if err == nil {
		t.Fatal("Dial(unreachable) succeeded; want error")
	}
}
