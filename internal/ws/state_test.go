package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-ncube/internal/app"
	"github.com/coreman2200/funtimes-ncube/internal/config"
	"github.com/coreman2200/funtimes-ncube/internal/record"
	"github.com/coreman2200/funtimes-ncube/internal/render"
	"github.com/coreman2200/funtimes-ncube/internal/rotation"
	"github.com/coreman2200/funtimes-ncube/internal/sequence"
	"github.com/coreman2200/funtimes-ncube/internal/store"
)

func newState(t *testing.T, withStore bool) (*State, *app.Core) {
	t.Helper()
	core, err := app.NewCore(app.Options{Dimension: 4})
	require.NoError(t, err)
	var st *store.Store
	if withStore {
		st, err = store.Open(filepath.Join(t.TempDir(), "scenes.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
	}
	s := NewState(core, st)
	core.AddDriver(s)
	return s, core
}

func velocity(t *testing.T, core *app.Core, p rotation.Plane) float64 {
	t.Helper()
	var w float64
	require.NoError(t, core.With(func(eng *render.Engine, _ *sequence.Player) error {
		w, _ = eng.PlaneVelocity(p)
		return nil
	}))
	return w
}

func TestApplyEngineCommands(t *testing.T) {
	s, core := newState(t, false)
	ctx := context.Background()

	r := s.Apply(ctx, Control{Cmd: "setVelocity", Plane: &[2]int{3, 1}, Velocity: 2.5})
	require.True(t, r.OK, r.Error)
	assert.Equal(t, 2.5, velocity(t, core, rotation.NewPlane(1, 3)))

	r = s.Apply(ctx, Control{Cmd: "setVelocity", Plane: &[2]int{0, 8}, Velocity: 1})
	assert.False(t, r.OK)
	assert.Contains(t, r.Error, "unknown rotation plane")

	r = s.Apply(ctx, Control{Cmd: "setDimension", Dimension: 6})
	require.True(t, r.OK, r.Error)
	assert.Equal(t, 6, core.Stats().Dimension)
	assert.False(t, s.Apply(ctx, Control{Cmd: "setDimension", Dimension: 12}).OK)
	assert.Equal(t, 6, core.Stats().Dimension)

	require.True(t, s.Apply(ctx, Control{Cmd: "togglePause"}).OK)
	assert.True(t, core.Stats().Paused)
	require.True(t, s.Apply(ctx, Control{Cmd: "resume"}).OK)
	assert.False(t, core.Stats().Paused)
	require.True(t, s.Apply(ctx, Control{Cmd: "pause"}).OK)

	require.True(t, s.Apply(ctx, Control{Cmd: "reset"}).OK)
	st := core.Stats()
	assert.Equal(t, render.DefaultDimension, st.Dimension)
	assert.False(t, st.Paused)

	assert.False(t, s.Apply(ctx, Control{Cmd: "explode"}).OK)
}

func TestApplyExportImport(t *testing.T) {
	s, core := newState(t, false)
	ctx := context.Background()
	core.Step(0.5)

	r := s.Apply(ctx, Control{Cmd: "export"})
	require.True(t, r.OK)
	rec := r.Data.(record.Record)
	assert.Equal(t, 4, rec.Dimension)

	rec.Dimension = 7
	raw, err := record.Encode(rec)
	require.NoError(t, err)
	r = s.Apply(ctx, Control{Cmd: "import", Record: raw})
	require.True(t, r.OK, r.Error)
	assert.Equal(t, 7, core.Stats().Dimension)

	r = s.Apply(ctx, Control{Cmd: "import", Record: json.RawMessage(`{"dimension": 40, "rotations": []}`)})
	assert.False(t, r.OK)
	assert.Equal(t, 7, core.Stats().Dimension)
}

func TestApplySceneLibrary(t *testing.T) {
	ctx := context.Background()
	bare, _ := newState(t, false)
	assert.Equal(t, errNoLibrary.Error(), bare.Apply(ctx, Control{Cmd: "listScenes"}).Error)

	s, core := newState(t, true)
	require.True(t, s.Apply(ctx, Control{Cmd: "setDimension", Dimension: 8}).OK)
	r := s.Apply(ctx, Control{Cmd: "saveScene", Name: "octeract"})
	require.True(t, r.OK, r.Error)
	id := r.Data.(map[string]string)["id"]
	require.NotEmpty(t, id)

	require.True(t, s.Apply(ctx, Control{Cmd: "setDimension", Dimension: 3}).OK)
	r = s.Apply(ctx, Control{Cmd: "loadScene", Name: "octeract"})
	require.True(t, r.OK, r.Error)
	assert.Equal(t, 8, core.Stats().Dimension)

	r = s.Apply(ctx, Control{Cmd: "listScenes"})
	require.True(t, r.OK)
	list := r.Data.([]store.Summary)
	require.Len(t, list, 1)
	assert.Equal(t, "octeract", list[0].Name)

	require.True(t, s.Apply(ctx, Control{Cmd: "deleteScene", ID: id}).OK)
	assert.False(t, s.Apply(ctx, Control{Cmd: "loadScene", ID: id}).OK)
}

func TestApplyPrograms(t *testing.T) {
	s, core := newState(t, false)
	ctx := context.Background()

	prog := `{"clips":[{"name":"a","dimension":5,"durationS":4,"velocities":[{"plane":[3,4],"keys":[{"t":0,"v":1.5}]}]}]}`
	r := s.Apply(ctx, Control{Cmd: "loadProgram", Program: json.RawMessage(prog)})
	require.True(t, r.OK, r.Error)
	core.Step(0.1)
	assert.Equal(t, 5, core.Stats().Dimension)
	assert.Equal(t, 1.5, velocity(t, core, rotation.NewPlane(3, 4)))

	require.True(t, s.Apply(ctx, Control{Cmd: "programSeek", T: 2}).OK)
	assert.InDelta(t, 2.0, core.Stats().ProgramT, 1e-12)
	require.True(t, s.Apply(ctx, Control{Cmd: "programPause"}).OK)
	assert.Equal(t, sequence.Paused, core.Stats().Program)
	require.True(t, s.Apply(ctx, Control{Cmd: "programResume"}).OK)
	require.True(t, s.Apply(ctx, Control{Cmd: "programStop"}).OK)
	assert.Equal(t, sequence.Idle, core.Stats().Program)

	require.True(t, s.Apply(ctx, Control{Cmd: "runTest", Test: "plane_sweep"}).OK)
	assert.Equal(t, sequence.Running, core.Stats().Program)
	assert.False(t, s.Apply(ctx, Control{Cmd: "runTest", Test: "spiral"}).OK)
	assert.False(t, s.Apply(ctx, Control{Cmd: "loadProgram", Program: json.RawMessage(`{"clips":[]}`)}).OK)
}

func TestConfigPersistedAfterChange(t *testing.T) {
	s, _ := newState(t, false)
	s.ConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	s.Base = config.Config{Addr: ":9999", ScenesDB: "lib.db"}

	require.True(t, s.Apply(context.Background(), Control{Cmd: "setVelocity", Plane: &[2]int{0, 1}, Velocity: -1}).OK)
	cfg, err := config.Load(s.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Dimension)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "lib.db", cfg.ScenesDB)
	assert.Contains(t, cfg.Rotations, config.PlaneVelocity{Plane: [2]int{0, 1}, Velocity: -1})
	assert.Contains(t, cfg.Rotations, config.PlaneVelocity{Plane: [2]int{1, 2}, Velocity: 1})
}

func TestHealthAndTopology(t *testing.T) {
	s, core := newState(t, false)
	core.Step(0.1)

	rec := httptest.NewRecorder()
	s.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, float64(1), health["frame_id"])
	assert.Equal(t, float64(4), health["dimension"])
	assert.Equal(t, float64(0), health["clients"])

	rec = httptest.NewRecorder()
	s.HandleTopology(rec, httptest.NewRequest(http.MethodGet, "/topology", nil))
	var top render.Topology
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))
	assert.Equal(t, 4, top.Dimension)
	assert.Len(t, top.Edges, 32)
	assert.Len(t, top.Faces, 48)
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readType(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	typ, _ := m["type"].(string)
	return typ, m
}

func TestFrameStream(t *testing.T) {
	s, core := newState(t, false)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	frames := dial(t, srv, "/ws")
	typ, m := readType(t, frames)
	require.Equal(t, "topology", typ)
	assert.Equal(t, float64(4), m["dimension"])
	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.clients) == 1
	}, 2*time.Second, 5*time.Millisecond)

	core.Step(1.0 / 60)
	typ, m = readType(t, frames)
	require.Equal(t, "frame", typ)
	assert.Len(t, m["vertices"], 16)

	// dimension change over /control: topology precedes the next frame
	ctl := dial(t, srv, "/control")
	require.NoError(t, ctl.WriteJSON(Control{Cmd: "setDimension", Dimension: 5}))
	var reply Reply
	require.NoError(t, ctl.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, ctl.ReadJSON(&reply))
	require.True(t, reply.OK, reply.Error)

	core.Step(1.0 / 60)
	typ, m = readType(t, frames)
	require.Equal(t, "topology", typ)
	assert.Len(t, m["edges"], 80)
	typ, m = readType(t, frames)
	require.Equal(t, "frame", typ)
	assert.Len(t, m["vertices"], 32)
}

func TestFramesAlwaysFollowMatchingTopology(t *testing.T) {
	s, core := newState(t, false)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	stepped := make(chan struct{})
	go func() {
		defer close(stepped)
		for i := 0; i < 90; i++ {
			dim := 3 + i%3
			_ = core.With(func(eng *render.Engine, _ *sequence.Player) error { return eng.SetDimension(dim) })
			core.Step(1.0 / 60)
			time.Sleep(time.Millisecond)
		}
	}()

	var wg sync.WaitGroup
	mismatches := make(chan string, 16)
	for i := 0; i < 6; i++ {
		conn := dial(t, srv, "/ws")
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			dim := -1
			for {
				_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
				_, b, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var m struct {
					Type      string `json:"type"`
					Dimension int    `json:"dimension"`
				}
				if json.Unmarshal(b, &m) != nil {
					continue
				}
				switch m.Type {
				case "topology":
					dim = m.Dimension
				case "frame":
					if m.Dimension != dim {
						mismatches <- fmt.Sprintf("client %d: frame dimension %d after topology %d", id, m.Dimension, dim)
						return
					}
				}
			}
		}(i)
		time.Sleep(5 * time.Millisecond)
	}
	<-stepped
	wg.Wait()
	close(mismatches)
	for m := range mismatches {
		t.Error(m)
	}
}
