// Package record is the exchange format for scene state: dimension, per-plane
// rotation and the appearance settings the renderer needs to rebuild a scene.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/coreman2200/funtimes-ncube/internal/ncube"
	"github.com/coreman2200/funtimes-ncube/internal/rotation"
)

var ErrInvalidRecord = errors.New("invalid scene record")

// Color is a linear RGBA color with channels in [0, 1].
type Color struct {
	R float32 `json:"r" yaml:"r"`
	G float32 `json:"g" yaml:"g"`
	B float32 `json:"b" yaml:"b"`
	A float32 `json:"a" yaml:"a"`
}

var (
	Cyan            = Color{R: 0, G: 1, B: 1, A: 1}
	TranslucentCyan = Color{R: 0, G: 1, B: 1, A: 0.1}
)

// Transform is an opaque camera pose owned by the renderer: translation,
// rotation quaternion (x, y, z, w) and scale.
type Transform struct {
	Translation [3]float64 `json:"translation"`
	Rotation    [4]float64 `json:"rotation"`
	Scale       [3]float64 `json:"scale"`
}

// IdentityTransform leaves the camera at the origin, unrotated and unscaled.
var IdentityTransform = Transform{Rotation: [4]float64{0, 0, 0, 1}, Scale: [3]float64{1, 1, 1}}

// PlaneRotation is one rotations entry. It is encoded as the tuple
// [axisA, axisB, angle, angularVelocity].
type PlaneRotation struct {
	AxisA           int
	AxisB           int
	Angle           float64
	AngularVelocity float64
}

func (p PlaneRotation) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]any{p.AxisA, p.AxisB, p.Angle, p.AngularVelocity})
}

func (p *PlaneRotation) UnmarshalJSON(b []byte) error {
	var raw []float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 4 {
		return fmt.Errorf("rotation entry has %d fields, want 4", len(raw))
	}
	for i, name := range []string{"axisA", "axisB"} {
		if raw[i] != math.Trunc(raw[i]) {
			return fmt.Errorf("%s: %v is not an integer", name, raw[i])
		}
	}
	*p = PlaneRotation{AxisA: int(raw[0]), AxisB: int(raw[1]), Angle: raw[2], AngularVelocity: raw[3]}
	return nil
}

// Record is the full exported scene.
type Record struct {
	Dimension       int             `json:"dimension"`
	Rotations       []PlaneRotation `json:"rotations"`
	EdgeThickness   float64         `json:"edgeThickness"`
	EdgeColor       Color           `json:"edgeColor"`
	FaceColor       Color           `json:"faceColor"`
	CameraTransform Transform       `json:"cameraTransform"`
	Unlit           bool            `json:"unlit"`
}

// FromState lists every plane of s in canonical order.
func FromState(s *rotation.State) []PlaneRotation {
	entries := s.Entries()
	out := make([]PlaneRotation, len(entries))
	for i, e := range entries {
		out[i] = PlaneRotation{AxisA: e.A, AxisB: e.B, Angle: e.Angle, AngularVelocity: e.Velocity}
	}
	return out
}

// State rebuilds the rotation state described by r. Planes the record does not
// mention start at rest.
func (r Record) State() (*rotation.State, error) {
	entries := make([]rotation.Entry, len(r.Rotations))
	for i, pr := range r.Rotations {
		entries[i] = rotation.Entry{
			Plane:    rotation.NewPlane(pr.AxisA, pr.AxisB),
			Rotation: rotation.Rotation{Angle: pr.Angle, Velocity: pr.AngularVelocity},
		}
	}
	s, err := rotation.FromEntries(r.Dimension, entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return s, nil
}

// Check validates the record's semantics: supported dimension, axes inside it,
// no repeated plane.
func (r Record) Check() error {
	if !ncube.ValidDimension(r.Dimension) {
		return fmt.Errorf("%w: dimension %d outside [%d, %d]", ErrInvalidRecord, r.Dimension, ncube.MinDimension, ncube.MaxDimension)
	}
	seen := map[rotation.Plane]bool{}
	for i, pr := range r.Rotations {
		if pr.AxisA == pr.AxisB {
			return fmt.Errorf("%w: rotation %d has repeated axis %d", ErrInvalidRecord, i, pr.AxisA)
		}
		p := rotation.NewPlane(pr.AxisA, pr.AxisB)
		if !p.Valid(r.Dimension) {
			return fmt.Errorf("%w: rotation %d plane %v outside dimension %d", ErrInvalidRecord, i, p, r.Dimension)
		}
		if seen[p] {
			return fmt.Errorf("%w: plane %v listed twice", ErrInvalidRecord, p)
		}
		seen[p] = true
	}
	if r.EdgeThickness < 0 {
		return fmt.Errorf("%w: negative edge thickness", ErrInvalidRecord)
	}
	return nil
}

// Normalize canonicalizes plane axes and wraps angles into [0, 2π). Records
// written before angles were normalized may carry any real angle.
func (r *Record) Normalize() {
	for i := range r.Rotations {
		pr := &r.Rotations[i]
		if pr.AxisA > pr.AxisB {
			pr.AxisA, pr.AxisB = pr.AxisB, pr.AxisA
		}
		pr.Angle = rotation.NormalizeAngle(pr.Angle)
	}
}

// Encode renders r as indented JSON. A nil rotation list is written as [].
func Encode(r Record) ([]byte, error) {
	if r.Rotations == nil {
		r.Rotations = []PlaneRotation{}
	}
	return json.MarshalIndent(r, "", "  ")
}

// Decode parses, schema-validates, checks and normalizes a record.
func Decode(b []byte) (Record, error) {
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := validateSchema(doc); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := r.Check(); err != nil {
		return Record{}, err
	}
	r.Normalize()
	return r, nil
}
