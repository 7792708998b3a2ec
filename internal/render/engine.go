package render

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-ncube/internal/ncube"
	"github.com/coreman2200/funtimes-ncube/internal/projection"
	"github.com/coreman2200/funtimes-ncube/internal/record"
	"github.com/coreman2200/funtimes-ncube/internal/rotation"
)

var ErrDimension = errors.New("unsupported dimension")

// Engine owns one rotating n-cube: its canonical topology, the current vertex
// buffer, the per-plane rotation state and the last projected points.
// It is not safe for concurrent use; callers serialize access.
type Engine struct {
	Appearance Appearance

	cube *ncube.NCube
	// base is the unrotated vertex set used to re-derive the buffer.
	base ncube.Vertices
	rot  *rotation.State

	drivers []Driver
	paused  bool
	points  []mgl64.Vec3
	frameID uint64

	// drift correction: revolution progress of the slowest plane
	slowest     rotation.Plane
	haveSlowest bool
	progress    float64
	corrections int

	// metrics (last durations in ms)
	Last struct {
		RotateMS  float64
		ProjectMS float64
		TotalMS   float64
	}
}

func checkShape(n int, size float64) error {
	if !ncube.ValidDimension(n) {
		return fmt.Errorf("%w: %d outside [%d, %d]", ErrDimension, n, ncube.MinDimension, ncube.MaxDimension)
	}
	if !(size > 0) || math.IsInf(size, 0) {
		return fmt.Errorf("invalid size %v", size)
	}
	return nil
}

// NewEngine builds an engine for an n-cube of the given size. rot may be nil for
// the default rotations; otherwise it is resized to n and its angles are applied.
func NewEngine(n int, size float64, rot *rotation.State, drivers ...Driver) (*Engine, error) {
	if err := checkShape(n, size); err != nil {
		return nil, err
	}
	if rot == nil {
		rot = rotation.Default(n)
	} else if rot.Dimension() != n {
		rot.Resize(n)
	}
	e := &Engine{
		Appearance: DefaultAppearance(size),
		rot:        rot,
		drivers:    drivers,
	}
	e.rebuild(ncube.New(n, size))
	return e, nil
}

// AddDriver registers a frame sink.
func (e *Engine) AddDriver(d Driver) {
	if d != nil {
		e.drivers = append(e.drivers, d)
	}
}

func (e *Engine) Dimension() int { return e.cube.Dimension }
func (e *Engine) Size() float64  { return e.cube.Size }

// rebuild swaps in a freshly generated cube, re-derives its vertices from the
// accumulated angles and projects them.
func (e *Engine) rebuild(c *ncube.NCube) {
	e.cube = c
	e.base = c.Vertices.Clone()
	if e.rot.Dimension() != c.Dimension {
		e.rot.Resize(c.Dimension)
	}
	c.RotateFrom(e.base, e.rot.Axes(), e.rot.Angles())
	e.resetDrift()
	e.project()
}

// GenerateTopology regenerates the cube when (n, size) differ from the current
// ones and returns the topology. Rotation state is carried over: planes that
// still exist keep their angle and velocity.
func (e *Engine) GenerateTopology(n int, size float64) (Topology, error) {
	if n == e.cube.Dimension && size == e.cube.Size {
		return e.Topology(), nil
	}
	if err := checkShape(n, size); err != nil {
		return Topology{}, err
	}
	start := time.Now()
	e.rebuild(ncube.New(n, size))
	log.Debug().
		Int("dimension", n).
		Float64("size", size).
		Int("vertices", len(e.cube.Vertices)).
		Int("edges", len(e.cube.Edges)).
		Int("faces", len(e.cube.Faces)).
		Dur("took", time.Since(start)).
		Msg("topology regenerated")
	return e.Topology(), nil
}

// SetDimension regenerates the cube at the current size.
func (e *Engine) SetDimension(n int) error {
	_, err := e.GenerateTopology(n, e.cube.Size)
	return err
}

// Topology returns the current topology. Vertices are a copy of the current
// (rotated) n-dimensional buffer; edges and faces are shared and read-only.
func (e *Engine) Topology() Topology {
	return Topology{
		Dimension: e.cube.Dimension,
		Size:      e.cube.Size,
		Vertices:  e.cube.Vertices.Clone(),
		Edges:     e.cube.Edges,
		Faces:     e.cube.Faces,
	}
}

// Tick advances every plane by dt seconds, rotates the vertex buffer with one
// combined matrix and returns the projected 3-D points. While paused only the
// projection runs, so the last geometry stays valid.
func (e *Engine) Tick(dt float64) []mgl64.Vec3 {
	start := time.Now()
	if !e.paused && dt > 0 {
		das := e.rot.Advance(dt)
		e.cube.Rotate(e.rot.Axes(), das)
		e.trackDrift(dt)
	}
	e.Last.RotateMS = ms(time.Since(start))
	e.project()
	e.Last.TotalMS = ms(time.Since(start))
	return e.Points()
}

// RenderOnce ticks and writes the resulting frame to every driver.
func (e *Engine) RenderOnce(dt float64) error {
	e.Tick(dt)
	return e.Emit()
}

// Emit writes the current frame to every driver, returning the first error.
func (e *Engine) Emit() error {
	f := e.Frame()
	var first error
	for _, d := range e.drivers {
		if err := d.Write(f); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Frame builds the frame for the last projected points.
func (e *Engine) Frame() Frame {
	e.frameID++
	f := BuildFrame(e.Points(), e.cube.Edges, e.cube.Faces, e.Appearance)
	f.FrameID = e.frameID
	f.T = time.Now().UnixNano()
	f.Dimension = e.cube.Dimension
	f.Paused = e.paused
	return f
}

func (e *Engine) project() {
	start := time.Now()
	e.points = projection.Perspective(e.cube.Vertices, e.cube.Dimension, e.cube.Size)
	e.Last.ProjectMS = ms(time.Since(start))
}

// Points returns a copy of the last projected points.
func (e *Engine) Points() []mgl64.Vec3 {
	return append([]mgl64.Vec3(nil), e.points...)
}

// Vertices returns a copy of the current n-dimensional vertex buffer.
func (e *Engine) Vertices() ncube.Vertices {
	return e.cube.Vertices.Clone()
}

// trackDrift re-derives the vertex buffer from the canonical base every time
// the slowest plane completes a revolution, bounding accumulated rounding error
// to one period of incremental rotation.
func (e *Engine) trackDrift(dt float64) {
	p, r, ok := e.rot.Slowest()
	if !ok {
		e.resetDrift()
		return
	}
	if !e.haveSlowest || p != e.slowest {
		e.slowest, e.haveSlowest, e.progress = p, true, 0
	}
	e.progress += math.Abs(r.Velocity) * dt
	if e.progress >= rotation.TwoPi {
		e.progress = math.Mod(e.progress, rotation.TwoPi)
		e.Resync()
	}
}

func (e *Engine) resetDrift() {
	e.haveSlowest = false
	e.progress = 0
}

// Resync replaces the vertex buffer with the base rotated by every plane's total
// accumulated angle in one shot.
//
// When active planes share an axis (q1q2 and q2q3, say) their rotations do not
// commute, so the one-shot rotation differs from the product of the per-tick
// ones and the cube visibly jumps at each correction. Planes sharing no axis
// resync to the incremental result up to rounding.
func (e *Engine) Resync() {
	e.cube.RotateFrom(e.base, e.rot.Axes(), e.rot.Angles())
	e.corrections++
	log.Debug().
		Int("dimension", e.cube.Dimension).
		Int("corrections", e.corrections).
		Msg("vertices re-derived from base")
}

// Corrections counts how many times the vertex buffer was re-derived.
func (e *Engine) Corrections() int { return e.corrections }

// SetPlaneVelocity sets the angular velocity (rad/s) of a plane. Revolution
// progress is kept; trackDrift restarts it only when the slowest plane changes.
func (e *Engine) SetPlaneVelocity(p rotation.Plane, w float64) error {
	return e.rot.SetVelocity(p, w)
}

// PlaneVelocity returns the angular velocity of p and whether p exists.
func (e *Engine) PlaneVelocity(p rotation.Plane) (float64, bool) {
	r, ok := e.rot.Get(p)
	return r.Velocity, ok
}

// Rotations lists every plane's angle and velocity in canonical order.
func (e *Engine) Rotations() []rotation.Entry {
	return e.rot.Entries()
}

func (e *Engine) Pause()       { e.paused = true }
func (e *Engine) Resume()      { e.paused = false }
func (e *Engine) TogglePause() { e.paused = !e.paused }
func (e *Engine) Paused() bool { return e.paused }

// Reset returns to the default dimension and rotations and unpauses. Colors,
// edge thickness and lighting are kept; the camera returns to its default pose.
func (e *Engine) Reset() {
	e.rot = rotation.Default(DefaultDimension)
	e.paused = false
	e.Appearance.Camera = record.IdentityTransform
	e.rebuild(ncube.New(DefaultDimension, e.cube.Size))
	log.Info().Int("dimension", DefaultDimension).Msg("engine reset")
}

// Export captures the scene as an exchange record.
func (e *Engine) Export() record.Record {
	return record.Record{
		Dimension:       e.cube.Dimension,
		Rotations:       record.FromState(e.rot),
		EdgeThickness:   e.Appearance.EdgeThickness,
		EdgeColor:       e.Appearance.EdgeColor,
		FaceColor:       e.Appearance.FaceColor,
		CameraTransform: e.Appearance.Camera,
		Unlit:           e.Appearance.Unlit,
	}
}

// Import replaces rotation state and appearance with r, regenerates the
// topology and re-derives the vertices from the imported angles. On error the
// engine is left untouched.
func (e *Engine) Import(r record.Record) error {
	if err := r.Check(); err != nil {
		return err
	}
	r.Rotations = append([]record.PlaneRotation(nil), r.Rotations...)
	r.Normalize()
	st, err := r.State()
	if err != nil {
		return err
	}

	cube := ncube.New(r.Dimension, e.cube.Size)
	e.rot = st
	e.Appearance = Appearance{
		EdgeThickness: r.EdgeThickness,
		EdgeColor:     r.EdgeColor,
		FaceColor:     r.FaceColor,
		Camera:        r.CameraTransform,
		Unlit:         r.Unlit,
	}
	e.rebuild(cube)
	log.Info().Int("dimension", r.Dimension).Int("rotations", len(r.Rotations)).Msg("scene imported")
	return nil
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
