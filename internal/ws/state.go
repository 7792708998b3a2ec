package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-ncube/internal/app"
	"github.com/coreman2200/funtimes-ncube/internal/config"
	diag "github.com/coreman2200/funtimes-ncube/internal/diagnostics"
	"github.com/coreman2200/funtimes-ncube/internal/record"
	"github.com/coreman2200/funtimes-ncube/internal/render"
	"github.com/coreman2200/funtimes-ncube/internal/rotation"
	"github.com/coreman2200/funtimes-ncube/internal/selftest"
	"github.com/coreman2200/funtimes-ncube/internal/sequence"
	"github.com/coreman2200/funtimes-ncube/internal/store"
)

const writeWait = 200 * time.Millisecond

// client serializes writes to one connection.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// State serves the frame stream, control and diagnostics websockets for one
// Core. It is also the render.Driver that broadcasts frames.
type State struct {
	mu          sync.RWMutex
	core        *app.Core
	scenes      *store.Store // nil disables the scene library commands
	clients     map[*websocket.Conn]*client
	diagClients map[*websocket.Conn]*client
	lastDim     int

	// ConfigPath, when set, receives the engine settings after every change;
	// Base supplies the fields the engine does not own.
	ConfigPath string
	Base       config.Config

	// SelfTestStepS is how long each self-test step lasts.
	SelfTestStepS float64

	upgrader websocket.Upgrader
}

func NewState(core *app.Core, scenes *store.Store) *State {
	return &State{
		core:          core,
		scenes:        scenes,
		clients:       map[*websocket.Conn]*client{},
		diagClients:   map[*websocket.Conn]*client{},
		lastDim:       core.Topology().Dimension,
		SelfTestStepS: 2,
		upgrader:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Write broadcasts f to every frame client, preceded by the new topology when
// the dimension changed.
func (s *State) Write(f render.Frame) error {
	s.mu.Lock()
	changed := f.Dimension != s.lastDim
	s.lastDim = f.Dimension
	s.mu.Unlock()
	if changed {
		top := s.core.Topology()
		s.broadcast(topologyMessage(top))
		s.pushDiag(diag.Diagnostic{
			Severity: diag.Info, Code: diag.TopologyChanged, Summary: "Topology regenerated",
			Evidence: map[string]any{"dimension": top.Dimension, "vertices": len(top.Vertices)},
		})
	}
	b, err := json.Marshal(frameMessage{Type: "frame", Frame: f})
	if err != nil {
		return err
	}
	s.broadcast(b)
	return nil
}

type frameMessage struct {
	Type string `json:"type"`
	render.Frame
}

type topologyEnvelope struct {
	Type string `json:"type"`
	render.Topology
}

func topologyMessage(t render.Topology) []byte {
	b, _ := json.Marshal(topologyEnvelope{Type: "topology", Topology: t})
	return b
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	// topology first, sent and registered under s.mu so a concurrent Write
	// cannot slip a dimension change in between (lock order: s.mu, then core)
	s.mu.Lock()
	_ = c.write(topologyMessage(s.core.Topology()))
	s.clients[conn] = c
	s.mu.Unlock()

	go s.drain(conn, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = &client{conn: conn}
	s.mu.Unlock()
	go s.drain(conn, s.diagClients)
}

// drain reads until the peer goes away, then unregisters it.
func (s *State) drain(conn *websocket.Conn, set map[*websocket.Conn]*client) {
	defer func() {
		s.mu.Lock()
		delete(set, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Control
		var resp Reply
		if err := json.Unmarshal(data, &msg); err != nil {
			resp = Reply{Error: "bad json: " + err.Error()}
		} else {
			resp = s.Apply(r.Context(), msg)
		}
		b, _ := json.Marshal(resp)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
}

// HandleTopology serves the current topology as JSON.
func (s *State) HandleTopology(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.core.Topology())
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	clients, diags := len(s.clients), len(s.diagClients)
	s.mu.RUnlock()
	resp := struct {
		app.Stats
		Clients     int `json:"clients"`
		DiagClients int `json:"diag_clients"`
	}{s.core.Stats(), clients, diags}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Control is one command from a /control client.
type Control struct {
	Cmd       string          `json:"cmd"`
	Plane     *[2]int         `json:"plane,omitempty"`
	Velocity  float64         `json:"velocity,omitempty"`
	Dimension int             `json:"dimension,omitempty"`
	Record    json.RawMessage `json:"record,omitempty"`
	Name      string          `json:"name,omitempty"`
	ID        string          `json:"id,omitempty"`
	Program   json.RawMessage `json:"program,omitempty"`
	T         float64         `json:"t,omitempty"`
	Test      string          `json:"test,omitempty"`
}

// Reply answers one Control.
type Reply struct {
	OK    bool   `json:"ok"`
	Cmd   string `json:"cmd,omitempty"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

var errNoLibrary = errors.New("scene library disabled")

// Apply executes one control command.
func (s *State) Apply(ctx context.Context, msg Control) Reply {
	data, persist, err := s.apply(ctx, msg)
	if err != nil {
		log.Warn().Err(err).Str("cmd", msg.Cmd).Msg("control rejected")
		s.pushDiag(diag.Rejected(msg.Cmd, err))
		return Reply{Cmd: msg.Cmd, Error: err.Error()}
	}
	if persist {
		s.saveConfig()
	}
	return Reply{OK: true, Cmd: msg.Cmd, Data: data}
}

func (s *State) apply(ctx context.Context, msg Control) (data any, persist bool, err error) {
	engine := func(f func(eng *render.Engine) error) error {
		return s.core.With(func(eng *render.Engine, _ *sequence.Player) error { return f(eng) })
	}
	player := func(f func(p *sequence.Player)) error {
		return s.core.With(func(_ *render.Engine, p *sequence.Player) error { f(p); return nil })
	}

	switch msg.Cmd {
	case "setVelocity":
		if msg.Plane == nil || msg.Plane[0] == msg.Plane[1] || msg.Plane[0] < 0 || msg.Plane[1] < 0 {
			return nil, false, fmt.Errorf("setVelocity: invalid plane")
		}
		p := rotation.NewPlane(msg.Plane[0], msg.Plane[1])
		return nil, true, engine(func(eng *render.Engine) error { return eng.SetPlaneVelocity(p, msg.Velocity) })
	case "setDimension":
		return nil, true, engine(func(eng *render.Engine) error { return eng.SetDimension(msg.Dimension) })
	case "pause":
		return nil, false, engine(func(eng *render.Engine) error { eng.Pause(); return nil })
	case "resume":
		return nil, false, engine(func(eng *render.Engine) error { eng.Resume(); return nil })
	case "togglePause":
		return nil, false, engine(func(eng *render.Engine) error { eng.TogglePause(); return nil })
	case "reset":
		return nil, true, engine(func(eng *render.Engine) error { eng.Reset(); return nil })
	case "export":
		var rec record.Record
		_ = engine(func(eng *render.Engine) error { rec = eng.Export(); return nil })
		return rec, false, nil
	case "import":
		rec, err := record.Decode(msg.Record)
		if err != nil {
			return nil, false, err
		}
		if err := s.importRecord(rec, "import"); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	case "saveScene":
		if s.scenes == nil {
			return nil, false, errNoLibrary
		}
		var rec record.Record
		_ = engine(func(eng *render.Engine) error { rec = eng.Export(); return nil })
		id, err := s.scenes.Save(ctx, msg.Name, rec)
		if err != nil {
			return nil, false, err
		}
		s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: diag.SceneSaved, Summary: "Scene saved",
			Evidence: map[string]any{"id": id, "name": msg.Name}})
		return map[string]string{"id": id}, false, nil
	case "loadScene":
		if s.scenes == nil {
			return nil, false, errNoLibrary
		}
		var sc store.Scene
		if msg.ID != "" {
			sc, err = s.scenes.Load(ctx, msg.ID)
		} else {
			sc, err = s.scenes.LoadByName(ctx, msg.Name)
		}
		if err != nil {
			return nil, false, err
		}
		if err := s.importRecord(sc.Record, sc.Name); err != nil {
			return nil, false, err
		}
		return map[string]string{"id": sc.ID, "name": sc.Name}, true, nil
	case "listScenes":
		if s.scenes == nil {
			return nil, false, errNoLibrary
		}
		list, err := s.scenes.List(ctx)
		return list, false, err
	case "deleteScene":
		if s.scenes == nil {
			return nil, false, errNoLibrary
		}
		return nil, false, s.scenes.Delete(ctx, msg.ID)
	case "loadProgram":
		var prog sequence.Program
		if err := json.Unmarshal(msg.Program, &prog); err != nil {
			return nil, false, fmt.Errorf("loadProgram: %w", err)
		}
		return nil, false, s.startProgram(prog)
	case "runTest":
		var n int
		_ = engine(func(eng *render.Engine) error { n = eng.Dimension(); return nil })
		prog, err := selftest.Plan(selftest.Kind(msg.Test), n, s.SelfTestStepS)
		if err != nil {
			s.pushDiag(diag.Diagnostic{Severity: diag.Warn, Code: diag.SelfTestUnknown, Summary: "Unknown test name",
				Evidence: map[string]any{"name": msg.Test}})
			return nil, false, err
		}
		s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: diag.SelfTestRunning, Summary: "Running test", Detail: msg.Test})
		return nil, false, s.startProgram(prog)
	case "programPause":
		return nil, false, player(func(p *sequence.Player) { p.Pause() })
	case "programResume":
		return nil, false, player(func(p *sequence.Player) { p.Resume() })
	case "programStop":
		return nil, false, player(func(p *sequence.Player) { p.Stop() })
	case "programSeek":
		return nil, false, player(func(p *sequence.Player) { p.Seek(msg.T) })
	default:
		return nil, false, fmt.Errorf("unknown command %q", msg.Cmd)
	}
}

func (s *State) importRecord(rec record.Record, source string) error {
	err := s.core.With(func(eng *render.Engine, _ *sequence.Player) error { return eng.Import(rec) })
	if err != nil {
		return err
	}
	s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: diag.SceneImported, Summary: "Scene imported",
		Evidence: map[string]any{"source": source, "dimension": rec.Dimension}})
	return nil
}

func (s *State) startProgram(prog sequence.Program) error {
	return s.core.With(func(_ *render.Engine, p *sequence.Player) error {
		if err := p.Load(prog); err != nil {
			return err
		}
		p.Start()
		return nil
	})
}

// saveConfig persists the engine-owned settings on top of Base.
func (s *State) saveConfig() {
	if s.ConfigPath == "" {
		return
	}
	cfg := s.Base
	_ = s.core.With(func(eng *render.Engine, _ *sequence.Player) error {
		cfg.Dimension = eng.Dimension()
		cfg.Size = eng.Size()
		cfg.Rotations = cfg.Rotations[:0:0]
		for _, e := range eng.Rotations() {
			if e.Velocity != 0 {
				cfg.Rotations = append(cfg.Rotations, config.PlaneVelocity{Plane: e.Axes(), Velocity: e.Velocity})
			}
		}
		ec, fc := eng.Appearance.EdgeColor, eng.Appearance.FaceColor
		cfg.Appearance = config.Appearance{
			EdgeThickness: eng.Appearance.EdgeThickness,
			EdgeColor:     &ec,
			FaceColor:     &fc,
			Unlit:         eng.Appearance.Unlit,
		}
		return nil
	})
	cfg.FPS = s.core.FPS()
	if err := config.Save(s.ConfigPath, &cfg); err != nil {
		log.Warn().Err(err).Str("path", s.ConfigPath).Msg("config save failed")
		s.pushDiag(diag.Diagnostic{Severity: diag.Err, Code: diag.ConfigSaveFailed, Summary: "Config save failed", Detail: err.Error()})
	}
}

func (s *State) broadcast(b []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if err := c.write(b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

func (s *State) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.diagClients {
		_ = c.write(b)
	}
}
