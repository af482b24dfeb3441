package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"github.com/dukerupert/mom/internal/database"
	"github.com/dukerupert/mom/internal/reminder"
	"github.com/dukerupert/mom/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	now   time.Time
	ticks chan time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) NewTicker(time.Duration) reminder.Ticker { return c }

func (c *manualClock) C() <-chan time.Time { return c.ticks }

func (c *manualClock) Stop() {}

func newTestServer(t *testing.T, clock reminder.Clock) (*Server, *httptest.Server) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := New(db, Options{
		Reminder:      reminder.DefaultConfig(),
		DisplayWindow: time.Second,
		Clock:         clock,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return s, srv
}

func readMessage(t *testing.T, ctx context.Context, conn *ws.Conn) websocket.Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg websocket.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
	assert.EqualValues(t, 4, body["schema"])
	assert.Equal(t, "unsupported", body["notifications"], "push without VAPID keys is unsupported")
}

func TestPermissionWithoutPush(t *testing.T) {
	_, srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/notifications/permission", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "unsupported", body["state"])
	assert.Equal(t, false, body["supported"])

	resp, err = http.Post(srv.URL+"/api/push/subscribe", "application/json",
		strings.NewReader(`{"endpoint":"https://push.example/1","keys":{"p256dh":"a","auth":"b"}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDueReminderIsBroadcast(t *testing.T) {
	clock := &manualClock{
		now:   time.Date(2024, 5, 1, 9, 0, 10, 0, time.Local),
		ticks: make(chan time.Time),
	}
	s, srv := newTestServer(t, clock)

	resp, err := http.Post(srv.URL+"/api/medications", "application/json",
		strings.NewReader(`{"name":"Aspirin","dose":"100mg","time":"09:00"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close(ws.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	greeting := readMessage(t, ctx, conn)
	assert.Equal(t, "permission_state", greeting.Type)
	assert.Equal(t, "unsupported", greeting.Extra["state"])

	s.Start(ctx)
	defer s.Stop()

	select {
	case clock.ticks <- clock.now:
	case <-ctx.Done():
		t.Fatal("tick not consumed")
	}

	msg := readMessage(t, ctx, conn)
	assert.Equal(t, "reminder_due", msg.Type)
	assert.Equal(t, "Aspirin", msg.Extra["title"])
	assert.Equal(t, "medication", msg.Extra["kind"])

	// The same occurrence never fires twice.
	select {
	case clock.ticks <- clock.now.Add(20 * time.Second):
	case <-ctx.Done():
		t.Fatal("tick not consumed")
	}
	readCtx, readCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer readCancel()
	_, _, err = conn.Read(readCtx)
	assert.Error(t, err, "no second broadcast for the same dose")
}

func TestStopIsIdempotent(t *testing.T) {
	s, _ := newTestServer(t, &manualClock{now: time.Now(), ticks: make(chan time.Time)})

	s.Start(context.Background())
	s.Start(context.Background())
	s.Stop()
	s.Stop()
}

func TestHouseholdSummary(t *testing.T) {
	_, srv := newTestServer(t, nil)

	for _, req := range []struct{ path, body string }{
		{"/api/medications", `{"name":"Aspirin","time":"09:00"}`},
		{"/api/shopping", `{"text":"Milk"}`},
		{"/api/shopping", `{"text":"Bread"}`},
		{"/api/recipes", `{"title":"Soup","steps":"Boil\nServe"}`},
	} {
		resp, err := http.Post(srv.URL+req.path, "application/json", strings.NewReader(req.body))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode, req.path)
	}

	resp, err := http.Get(srv.URL + "/api/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]int{"medications": 1, "appointments": 0, "shopping": 2, "recipes": 1, "photos": 0}, body)
}
