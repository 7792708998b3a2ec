package sequence

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-ncube/internal/ncube"
)

// NewPlayer constructs a Player with provided hooks.
func NewPlayer(h Hooks) *Player {
	return &Player{
		State: Idle,
		hooks: h,
	}
}

// Validate checks durations, dimensions, planes and easing names.
func (prog Program) Validate() error {
	if len(prog.Clips) == 0 {
		return errors.New("program has no clips")
	}
	for i, c := range prog.Clips {
		if !(c.DurationS > 0) || math.IsInf(c.DurationS, 0) {
			return fmt.Errorf("clip %d (%s): duration must be positive, got %v", i, c.Name, c.DurationS)
		}
		if c.Dimension != 0 && !ncube.ValidDimension(c.Dimension) {
			return fmt.Errorf("clip %d (%s): dimension %d outside [%d, %d]",
				i, c.Name, c.Dimension, ncube.MinDimension, ncube.MaxDimension)
		}
		limit := ncube.MaxDimension
		if c.Dimension != 0 {
			limit = c.Dimension
		}
		for _, v := range c.Velocities {
			a, b := v.Plane[0], v.Plane[1]
			if a < 0 || b < 0 || a == b || a >= limit || b >= limit {
				return fmt.Errorf("clip %d (%s): invalid plane %v for dimension %d", i, c.Name, v.Plane, limit)
			}
			for _, k := range v.Keys {
				if !validEase(k.Ease) {
					return fmt.Errorf("clip %d (%s): unknown ease %q", i, c.Name, k.Ease)
				}
			}
		}
	}
	return nil
}

// Load replaces the current program. Resets time and state to Idle.
func (p *Player) Load(prog Program) error {
	if err := prog.Validate(); err != nil {
		return err
	}
	clips := make([]Clip, len(prog.Clips))
	for i, c := range prog.Clips {
		vs := make([]PlaneEnvelope, len(c.Velocities))
		for j, v := range c.Velocities {
			vs[j] = PlaneEnvelope{Plane: v.Plane, Envelope: v.Envelope.sorted()}
		}
		c.Velocities = vs
		clips[i] = c
	}
	prog.Clips = clips
	p.prog = prog
	p.idx = 0
	p.localS = 0
	p.State = Idle
	return nil
}

// Program returns the loaded program.
func (p *Player) Program() Program { return p.prog }

// Start moves to Running and primes the current clip.
func (p *Player) Start() {
	if p.State == Running || len(p.prog.Clips) == 0 {
		return
	}
	p.State = Running
	p.enter()
	p.apply()
}

// Pause pauses playback.
func (p *Player) Pause() {
	if p.State == Running {
		p.State = Paused
	}
}

// Resume resumes playback.
func (p *Player) Resume() {
	if p.State == Paused {
		p.State = Running
	}
}

// Stop stops and resets to start.
func (p *Player) Stop() {
	p.State = Idle
	p.idx = 0
	p.localS = 0
}

// Now returns the absolute program time.
func (p *Player) Now() float64 {
	acc := 0.0
	for i := 0; i < p.idx; i++ {
		acc += p.prog.Clips[i].DurationS
	}
	return acc + p.localS
}

// Clip returns the active clip and its index.
func (p *Player) Clip() (Clip, int) {
	if len(p.prog.Clips) == 0 {
		return Clip{}, -1
	}
	return p.prog.Clips[p.idx], p.idx
}

// Seek jumps to absolute program time t. Clamps into [0, totalDur).
// When running, the clip at t is entered and its velocities applied.
func (p *Player) Seek(t float64) {
	if len(p.prog.Clips) == 0 {
		return
	}
	if t < 0 {
		t = 0
	}
	total := p.totalDuration()
	if t >= total {
		t = math.Nextafter(total, -1)
	}
	acc := 0.0
	idx := len(p.prog.Clips) - 1
	for i, c := range p.prog.Clips {
		if t < acc+c.DurationS {
			idx = i
			break
		}
		acc += c.DurationS
	}
	p.idx = idx
	p.localS = t - acc
	if p.State == Running {
		p.enter()
		p.apply()
	}
}

// Tick advances the sequencer by dt seconds and emits control hooks.
func (p *Player) Tick(dt float64) {
	if p.State != Running || len(p.prog.Clips) == 0 {
		return
	}
	if dt <= 0 {
		return
	}
	p.localS += dt
	for p.localS >= p.prog.Clips[p.idx].DurationS {
		clip := p.prog.Clips[p.idx]
		next := p.nextIndex()
		if next == -1 {
			// End of program: leave the final velocities in place
			p.localS = clip.DurationS
			p.apply()
			p.Stop()
			log.Debug().Msg("program finished")
			return
		}
		p.localS -= clip.DurationS
		p.idx = next
		p.enter()
	}
	p.apply()
}

// enter performs the clip-start actions.
func (p *Player) enter() {
	clip := p.prog.Clips[p.idx]
	log.Debug().Str("clip", clip.Name).Int("index", p.idx).Msg("clip started")
	if clip.Dimension == 0 || p.hooks.SetDimension == nil {
		return
	}
	if err := p.hooks.SetDimension(clip.Dimension); err != nil {
		log.Warn().Err(err).Str("clip", clip.Name).Int("dimension", clip.Dimension).Msg("set dimension")
	}
}

// apply evaluates every velocity envelope of the active clip.
func (p *Player) apply() {
	if p.hooks.SetPlaneVelocity == nil {
		return
	}
	clip := p.prog.Clips[p.idx]
	for _, v := range clip.Velocities {
		pl := v.target()
		if err := p.hooks.SetPlaneVelocity(pl, v.Eval(p.localS)); err != nil {
			log.Warn().Err(err).Str("clip", clip.Name).Str("plane", pl.String()).Msg("set velocity")
		}
	}
}

func (p *Player) totalDuration() float64 {
	total := 0.0
	for _, c := range p.prog.Clips {
		total += c.DurationS
	}
	return total
}

func (p *Player) nextIndex() int {
	ni := p.idx + 1
	if ni >= len(p.prog.Clips) {
		if p.prog.Loop {
			return 0
		}
		return -1
	}
	return ni
}
