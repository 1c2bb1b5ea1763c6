package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketReceivesEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, welcome, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(welcome), `"type":"welcome"`)

	require.Eventually(t, func() bool { return hub.Stats().WSClients == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastJSON(Event{Type: EventFavoriteAdded, UserID: "u1", MangaID: "m1"})

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, EventFavoriteAdded, ev.Type)
	assert.Equal(t, "m1", ev.MangaID)
}

func TestTCPServerReceivesEvents(t *testing.T) {
	hub := NewHub(nil)
	srv := NewServer("127.0.0.1:0", hub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.ListenAddr() != nil }, 2*time.Second, 10*time.Millisecond)

	conn, err := net.Dial("tcp", srv.ListenAddr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	sc := bufio.NewScanner(conn)
	require.True(t, sc.Scan())
	assert.Contains(t, sc.Text(), `"transport":"tcp"`)

	require.Eventually(t, func() bool { return hub.Stats().TCPClients == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.Publish(Event{Type: EventChapterRead, UserID: "u1", MangaID: "m1", ChapterID: "c1", Level: 2})

	require.True(t, sc.Scan())
	var ev Event
	require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
	assert.Equal(t, EventChapterRead, ev.Type)
	assert.Equal(t, 2, ev.Level)
	assert.False(t, ev.At.IsZero())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

type failingSubscriber struct{ closed bool }

func (f *failingSubscriber) send([]byte) error { return net.ErrClosed }
func (f *failingSubscriber) close()            { f.closed = true }
func (f *failingSubscriber) transport() string { return "test" }

func TestBroadcastDropsFailedSubscribers(t *testing.T) {
	hub := NewHub(nil)
	dead := &failingSubscriber{}
	hub.subscribe(dead)

	hub.BroadcastJSON(Event{Type: EventFavoriteRemoved})

	assert.True(t, dead.closed)
	hub.mu.Lock()
	assert.Empty(t, hub.subs)
	hub.mu.Unlock()
}
