package sequence

import "github.com/coreman2200/funtimes-ncube/internal/rotation"

// Keyframe represents a value at time T (seconds) with an easing function
// that applies to the segment starting at this keyframe.
type Keyframe struct {
	T    float64 `json:"t" yaml:"t"`
	V    float64 `json:"v" yaml:"v"`
	Ease string  `json:"ease,omitempty" yaml:"ease,omitempty"` // "linear","smooth","cubic"
}

// Envelope is a sorted list of keyframes; Eval(t) interpolates a value.
type Envelope struct {
	Keys []Keyframe `json:"keys" yaml:"keys"`
}

// PlaneEnvelope automates the angular velocity (rad/s) of one plane.
type PlaneEnvelope struct {
	Plane    [2]int `json:"plane" yaml:"plane"`
	Envelope `yaml:",inline"`
}

func (pe PlaneEnvelope) target() rotation.Plane {
	return rotation.NewPlane(pe.Plane[0], pe.Plane[1])
}

// Clip is one segment of a program: optionally switches dimension when it
// starts, then drives plane velocities from envelopes over its duration.
// Time inside Velocities is local to the clip.
type Clip struct {
	Name       string          `json:"name" yaml:"name"`
	Dimension  int             `json:"dimension,omitempty" yaml:"dimension,omitempty"` // 0 keeps the current one
	DurationS  float64         `json:"durationS" yaml:"duration_s"`
	Velocities []PlaneEnvelope `json:"velocities,omitempty" yaml:"velocities,omitempty"`
}

// Program is a full sequence of clips.
type Program struct {
	Version string `json:"version" yaml:"version"` // e.g., "rot.v1"
	Loop    bool   `json:"loop,omitempty" yaml:"loop,omitempty"`
	Clips   []Clip `json:"clips" yaml:"clips"`
}

// PlayerState enumerates sequencer states.
type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
	Paused  PlayerState = "paused"
)

// Hooks are dependency-injected callbacks into the render engine.
type Hooks struct {
	// Switch the cube to dimension n (called when a clip with Dimension > 0 starts).
	SetDimension func(n int) error
	// Set the angular velocity of one plane.
	SetPlaneVelocity func(p rotation.Plane, w float64) error
}

// Player owns the current Program timeline and uses Hooks to drive the engine.
type Player struct {
	State PlayerState

	prog   Program
	idx    int     // current clip index
	localS float64 // position within the current clip

	// injection
	hooks Hooks
}
