// Package selftest builds rotation programs that exercise every plane or
// every dimension in turn, for checking a display end to end.
package selftest

import (
	"fmt"

	"github.com/coreman2200/funtimes-ncube/internal/ncube"
	"github.com/coreman2200/funtimes-ncube/internal/sequence"
)

type Kind string

const (
	PlaneSweep     Kind = "plane_sweep"
	DimensionSweep Kind = "dimension_sweep"
)

// SweepVelocity is the angular velocity (rad/s) used by the sweeps.
const SweepVelocity = 1.0

func constant(a, b int, v float64) sequence.PlaneEnvelope {
	return sequence.PlaneEnvelope{
		Plane:    [2]int{a, b},
		Envelope: sequence.Envelope{Keys: []sequence.Keyframe{{T: 0, V: v}}},
	}
}

// Plan returns the program for kind at dimension n, holding each step for stepS seconds.
func Plan(kind Kind, n int, stepS float64) (sequence.Program, error) {
	if !ncube.ValidDimension(n) {
		return sequence.Program{}, fmt.Errorf("dimension %d outside [%d, %d]", n, ncube.MinDimension, ncube.MaxDimension)
	}
	if !(stepS > 0) {
		return sequence.Program{}, fmt.Errorf("step must be positive, got %v", stepS)
	}
	prog := sequence.Program{Version: "rot.v1"}
	switch kind {
	case PlaneSweep:
		pairs := ncube.PlanePairs(n)
		for _, target := range pairs {
			clip := sequence.Clip{
				Name:      fmt.Sprintf("q%dq%d", target[0]+1, target[1]+1),
				Dimension: n,
				DurationS: stepS,
			}
			for _, p := range pairs {
				v := 0.0
				if p == target {
					v = SweepVelocity
				}
				clip.Velocities = append(clip.Velocities, constant(p[0], p[1], v))
			}
			prog.Clips = append(prog.Clips, clip)
		}
	case DimensionSweep:
		for d := ncube.MinDimension; d <= ncube.MaxDimension; d++ {
			clip := sequence.Clip{
				Name:       fmt.Sprintf("%d-cube", d),
				Dimension:  d,
				DurationS:  stepS,
				Velocities: []sequence.PlaneEnvelope{constant(1, 2, SweepVelocity), constant(0, 3, SweepVelocity/2)},
			}
			if d == 3 {
				clip.Velocities = clip.Velocities[:1]
			}
			prog.Clips = append(prog.Clips, clip)
		}
	default:
		return sequence.Program{}, fmt.Errorf("unknown self test %q", kind)
	}
	return prog, nil
}
