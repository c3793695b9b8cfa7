package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vl4deee11/predprey/mob"
	"github.com/vl4deee11/predprey/sim"
)

func TestReporter(t *testing.T) {
	var buf bytes.Buffer
	r := newReporterTo(&buf, 2)

	r.add(sim.Summary{Episode: 1, Episodes: 4, Mobs: []sim.MobSummary{{Category: mob.Prey, Reward: -10}}})
	assert.Empty(t, buf.String())
	assert.Equal(t, -10.0, r.mean(mob.Prey))

	r.add(sim.Summary{Episode: 2, Episodes: 4, Mobs: []sim.MobSummary{{Category: mob.Prey, Reward: 4}}})
	out := buf.String()
	assert.Contains(t, out, "Episode 3/4 completed")
	assert.Contains(t, out, "Prey mean reward -3.00 over 2 mob episodes")
	assert.NotContains(t, out, "Predator")
	assert.Equal(t, 0.0, r.mean(mob.Prey))
}

func TestHubStreamsFrames(t *testing.T) {
	h := newHub(150, 150)
	frames := make(chan sim.Frame)
	go h.broadcast(frames)
	defer close(frames)

	ln, err := listenFrom(0, 1)
	require.NoError(t, err)
	go h.serve(ln)
	defer ln.Close()
	addr := fmt.Sprintf("127.0.0.1:%d", ln.Addr().(*net.TCPAddr).Port)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello map[string]interface{}
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "config", hello["type"])
	assert.Equal(t, 150.0, hello["w"])

	frames <- sim.Frame{
		Type:  "state",
		Frame: 3,
		Stats: []sim.Stat{{Category: "Prey", Alive: 1, Total: 1}},
	}

	var got sim.Frame
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "state", got.Type)
	assert.Equal(t, 3, got.Frame)

	res, err := http.Get("http://" + addr + "/stats")
	require.NoError(t, err)
	defer res.Body.Close()
	var stats []sim.Stat
	require.NoError(t, json.NewDecoder(res.Body).Decode(&stats))
	assert.Equal(t, []sim.Stat{{Category: "Prey", Alive: 1, Total: 1}}, stats)
}

func TestListenFrom(t *testing.T) {
	ln, err := listenFrom(0, 1)
	require.NoError(t, err)
	defer ln.Close()
	busy := ln.Addr().(*net.TCPAddr).Port

	_, err = listenFrom(busy, 1)
	assert.Error(t, err)

	_, err = listenFrom(busy, 0)
	assert.Error(t, err)
}

func TestBasePort(t *testing.T) {
	t.Setenv("PORT", "9100")
	assert.Equal(t, 9100, basePort())
	t.Setenv("PORT", "nope")
	assert.Equal(t, 8080, basePort())
}
