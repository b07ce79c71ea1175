package telemetry

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastAndCommands(t *testing.T) {
	var (
		mu   sync.Mutex
		cmds []byte
	)
	hub := NewHub(func(b byte) {
		mu.Lock()
		defer mu.Unlock()
		cmds = append(cmds, b)
	})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Emit(Frame{Angle: 12, State: 1, Active: true})

	var got Frame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, Frame{Angle: 12, State: 1, Active: true}, got)

	require.NoError(t, conn.WriteJSON(Command{Cmd: "o"}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(cmds) == 1 && cmds[0] == 'o'
	}, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_EmitWithoutClients(t *testing.T) {
	hub := NewHub(nil)
	assert.NotPanics(t, func() {
		for range 1000 {
			hub.Emit(Frame{})
		}
	})
}
