package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aura-taste/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialLive(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readLive(t *testing.T, conn *websocket.Conn) liveMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg liveMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestAdminLive_PushesSnapshots(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn := dialLive(t, srv, "/admin/orders/live?token=tok-admin")
	first := readLive(t, conn)
	assert.Len(t, first.Orders, 3)
	assert.Equal(t, 1, first.PendingCount)

	rec := serve(env, http.MethodPatch, "/admin/orders/o-ana/status", `{"status":"Approved"}`, adminHeaders)
	require.Equal(t, http.StatusOK, rec.Code)

	// Snapshots are full replacements; wait for the one reflecting the update.
	for {
		msg := readLive(t, conn)
		if msg.PendingCount == 0 {
			for _, o := range msg.Orders {
				if o.ID == "o-ana" {
					assert.Equal(t, domain.StatusApproved, o.Status)
				}
			}
			break
		}
	}
}

func TestCustomerLive_OnlyOwnOrders(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn := dialLive(t, srv, "/orders/live?token=tok-ana")
	msg := readLive(t, conn)
	require.Len(t, msg.Orders, 1)
	assert.Equal(t, "o-ana", msg.Orders[0].ID)
	assert.NotEmpty(t, msg.Orders[0].Countdown.Label)
}

func TestOrderLive_ByID(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn := dialLive(t, srv, "/orders/o-guest/live?session=sess-guest")
	msg := readLive(t, conn)
	require.Len(t, msg.Orders, 1)
	assert.Equal(t, domain.StatusCompleted, msg.Orders[0].Status)
}

func TestLive_RejectsNonAdmin(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/orders/live?token=tok-ana"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
