// Package rotation tracks the angle and angular velocity of every coordinate plane.
package rotation

import (
	"errors"
	"fmt"
	"math"

	"github.com/coreman2200/funtimes-ncube/internal/ncube"
)

const TwoPi = 2 * math.Pi

var ErrUnknownPlane = errors.New("unknown rotation plane")

// Plane is a pair of axes spanning a rotation plane. A < B always holds for
// planes built with NewPlane, so each plane has exactly one key.
type Plane struct {
	A int `json:"a" yaml:"a"`
	B int `json:"b" yaml:"b"`
}

// NewPlane returns the canonical plane for axes a and b in either order.
func NewPlane(a, b int) Plane {
	if a == b {
		panic(fmt.Sprintf("rotation: degenerate plane (%d, %d)", a, b))
	}
	if a > b {
		a, b = b, a
	}
	return Plane{A: a, B: b}
}

func (p Plane) Axes() [2]int { return [2]int{p.A, p.B} }

// Valid reports whether p is canonical and fits in dimension n.
func (p Plane) Valid(n int) bool {
	return p.A >= 0 && p.A < p.B && p.B < n
}

// String names the plane by its 1-based axes, e.g. "q2q3".
func (p Plane) String() string {
	return fmt.Sprintf("q%dq%d", p.A+1, p.B+1)
}

// Rotation is the accumulated angle (radians, in [0, 2π)) and angular velocity
// (radians per second) of one plane.
type Rotation struct {
	Angle    float64 `json:"angle"`
	Velocity float64 `json:"velocity"`
}

// State maps every plane of an n-cube to its rotation. Not safe for concurrent use.
type State struct {
	n      int
	planes []Plane
	m      map[Plane]Rotation
}

// NewState returns a state with every plane of dimension n at rest.
func NewState(n int) *State {
	s := &State{}
	s.Resize(n)
	return s
}

// Default returns the initial state: q2q3 spinning at 1 rad/s and q1q4 at 0.5 rad/s.
func Default(n int) *State {
	s := NewState(n)
	if n > 2 {
		s.m[NewPlane(1, 2)] = Rotation{Velocity: 1.0}
	}
	if n > 3 {
		s.m[NewPlane(0, 3)] = Rotation{Velocity: 0.5}
	}
	return s
}

func (s *State) Dimension() int { return s.n }

// Resize switches the state to dimension n. Planes that still exist keep their
// rotation, new planes start at rest and planes beyond n are dropped.
func (s *State) Resize(n int) {
	pairs := ncube.PlanePairs(n)
	planes := make([]Plane, len(pairs))
	m := make(map[Plane]Rotation, len(pairs))
	for i, pr := range pairs {
		p := Plane{A: pr[0], B: pr[1]}
		planes[i] = p
		m[p] = s.m[p]
	}
	s.n, s.planes, s.m = n, planes, m
}

// Planes returns every plane in canonical order.
func (s *State) Planes() []Plane {
	return append([]Plane(nil), s.planes...)
}

// Axes returns the planes in canonical order as axis pairs.
func (s *State) Axes() [][2]int {
	out := make([][2]int, len(s.planes))
	for i, p := range s.planes {
		out[i] = p.Axes()
	}
	return out
}

func (s *State) Len() int { return len(s.planes) }

// Get returns the rotation of p and whether p belongs to this dimension.
func (s *State) Get(p Plane) (Rotation, bool) {
	r, ok := s.m[p]
	return r, ok
}

// Set replaces the rotation of p, normalizing the angle.
func (s *State) Set(p Plane, r Rotation) error {
	if _, ok := s.m[p]; !ok {
		return fmt.Errorf("%w: %v in dimension %d", ErrUnknownPlane, p, s.n)
	}
	r.Angle = NormalizeAngle(r.Angle)
	s.m[p] = r
	return nil
}

// SetVelocity changes the angular velocity of p, keeping its angle.
func (s *State) SetVelocity(p Plane, w float64) error {
	r, ok := s.m[p]
	if !ok {
		return fmt.Errorf("%w: %v in dimension %d", ErrUnknownPlane, p, s.n)
	}
	r.Velocity = w
	s.m[p] = r
	return nil
}

func (s *State) Velocity(p Plane) float64 { return s.m[p].Velocity }
func (s *State) Angle(p Plane) float64    { return s.m[p].Angle }

// Angles returns the accumulated angle of every plane in canonical order.
func (s *State) Angles() []float64 {
	out := make([]float64, len(s.planes))
	for i, p := range s.planes {
		out[i] = s.m[p].Angle
	}
	return out
}

// Advance moves every angle forward by velocity·dt, wrapping into [0, 2π), and
// returns the unwrapped per-plane deltas in canonical order.
func (s *State) Advance(dt float64) []float64 {
	das := make([]float64, len(s.planes))
	for i, p := range s.planes {
		r := s.m[p]
		da := r.Velocity * dt
		das[i] = da
		r.Angle = NormalizeAngle(r.Angle + da)
		s.m[p] = r
	}
	return das
}

// Slowest returns the plane with the smallest nonzero |velocity|, i.e. the one
// with the longest period. Ties go to the first plane in canonical order.
// ok is false when nothing rotates.
func (s *State) Slowest() (p Plane, r Rotation, ok bool) {
	best := math.Inf(1)
	for _, pl := range s.planes {
		rr := s.m[pl]
		w := math.Abs(rr.Velocity)
		if w == 0 || w >= best {
			continue
		}
		best, p, r, ok = w, pl, rr, true
	}
	return p, r, ok
}

// Entry pairs a plane with its rotation.
type Entry struct {
	Plane
	Rotation
}

// Entries lists every plane and rotation in canonical order.
func (s *State) Entries() []Entry {
	out := make([]Entry, len(s.planes))
	for i, p := range s.planes {
		out[i] = Entry{Plane: p, Rotation: s.m[p]}
	}
	return out
}

// FromEntries builds a state for dimension n; planes not listed start at rest.
func FromEntries(n int, entries []Entry) (*State, error) {
	s := NewState(n)
	for _, e := range entries {
		if err := s.Set(e.Plane, e.Rotation); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	c := &State{n: s.n, planes: s.Planes(), m: make(map[Plane]Rotation, len(s.m))}
	for k, v := range s.m {
		c.m[k] = v
	}
	return c
}

// NormalizeAngle wraps a into [0, 2π).
func NormalizeAngle(a float64) float64 {
	if a >= 0 && a < TwoPi {
		return a
	}
	a = math.Mod(a, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	if a >= TwoPi || a == 0 {
		a = 0
	}
	return a
}
