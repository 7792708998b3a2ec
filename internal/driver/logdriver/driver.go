package logdriver

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-ncube/internal/render"
)

// Driver logs a compact summary of every Every-th frame (centroid and radius of
// the projected points), useful for headless runs.
type Driver struct {
	Count int
	Every int
	Level zerolog.Level

	// Last summary, for inspection.
	Centroid mgl64.Vec3
	Radius   float64
}

func New(every int) *Driver {
	if every <= 0 {
		every = 1
	}
	return &Driver{Every: every, Level: zerolog.InfoLevel}
}

func (d *Driver) Write(f render.Frame) error {
	d.Count++
	if d.Every > 1 && d.Count%d.Every != 0 {
		return nil
	}
	d.Centroid, d.Radius = Summarize(f.Vertices)
	log.WithLevel(d.Level).
		Uint64("frame", f.FrameID).
		Int("dimension", f.Dimension).
		Bool("paused", f.Paused).
		Floats64("centroid", d.Centroid[:]).
		Float64("radius", d.Radius).
		Int("edges", len(f.Edges)).
		Msg("frame")
	return nil
}

// Summarize returns the centroid of pts and the largest distance from it.
func Summarize(pts []mgl64.Vec3) (mgl64.Vec3, float64) {
	if len(pts) == 0 {
		return mgl64.Vec3{}, 0
	}
	var c mgl64.Vec3
	for _, p := range pts {
		c = c.Add(p)
	}
	c = c.Mul(1 / float64(len(pts)))
	var r float64
	for _, p := range pts {
		if l := p.Sub(c).Len(); l > r {
			r = l
		}
	}
	return c, r
}
