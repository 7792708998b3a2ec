package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/coreman2200/funtimes-ncube/internal/ncube"
	"github.com/coreman2200/funtimes-ncube/internal/record"
)

const (
	DefaultDimension = 5
	DefaultSize      = 1.0
)

// Driver receives every rendered frame (websocket broadcaster, log sink, ...).
type Driver interface {
	Write(Frame) error
}

// Topology is the static part of the scene: it only changes with (dimension, size).
type Topology struct {
	Dimension int            `json:"dimension"`
	Size      float64        `json:"size"`
	Vertices  ncube.Vertices `json:"vertices"`
	Edges     []ncube.Edge   `json:"edges"`
	Faces     []ncube.Face   `json:"faces"`
}

// Appearance is renderer state carried through export/import untouched by the core.
type Appearance struct {
	EdgeThickness float64          `json:"edgeThickness" yaml:"edge_thickness"`
	EdgeColor     record.Color     `json:"edgeColor" yaml:"edge_color"`
	FaceColor     record.Color     `json:"faceColor" yaml:"face_color"`
	Camera        record.Transform `json:"cameraTransform" yaml:"-"`
	Unlit         bool             `json:"unlit" yaml:"unlit"`
}

// DefaultAppearance is cyan edges of thickness 0.01·size over faint cyan faces.
func DefaultAppearance(size float64) Appearance {
	return Appearance{
		EdgeThickness: 0.01 * size,
		EdgeColor:     record.Cyan,
		FaceColor:     record.TranslucentCyan,
		Camera:        record.IdentityTransform,
	}
}

// EdgeTransform places a unit cube so it spans one edge: centered between the
// endpoints, stretched along +Z to the edge length and rotated onto the edge.
type EdgeTransform struct {
	Translation mgl64.Vec3 `json:"translation"`
	Scale       mgl64.Vec3 `json:"scale"`
	// Rotation is a quaternion (x, y, z, w).
	Rotation [4]float64 `json:"rotation"`
}

// Frame is everything a renderer needs for one tick.
type Frame struct {
	FrameID   uint64          `json:"frame_id"`
	T         int64           `json:"t"`
	Dimension int             `json:"dimension"`
	Paused    bool            `json:"paused"`
	Vertices  []mgl64.Vec3    `json:"vertices"`
	Edges     []EdgeTransform `json:"edges"`
	Normals   []mgl64.Vec3    `json:"normals,omitempty"`
}
