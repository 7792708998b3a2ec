package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-ncube/internal/render"
	"github.com/coreman2200/funtimes-ncube/internal/rotation"
	"github.com/coreman2200/funtimes-ncube/internal/sequence"
)

// Options configures a Core. Zero values fall back to the render defaults.
type Options struct {
	Dimension  int
	Size       float64
	FPS        int
	Rotations  *rotation.State
	Appearance *render.Appearance
	Program    *sequence.Program // started immediately when set
	Drivers    []render.Driver
}

// Core owns the engine and the program player and serializes access to both.
// Frames are built under the lock and handed to drivers after it is released.
type Core struct {
	mu      sync.Mutex
	eng     *render.Engine
	seq     *sequence.Player
	drivers []render.Driver
	fps     int

	frameID   uint64
	startTime time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Stats is a snapshot for health reporting.
type Stats struct {
	FrameID     uint64               `json:"frame_id"`
	UptimeS     float64              `json:"uptime_s"`
	FPS         int                  `json:"fps"`
	Dimension   int                  `json:"dimension"`
	Size        float64              `json:"size"`
	Paused      bool                 `json:"paused"`
	Corrections int                  `json:"corrections"`
	TotalMS     float64              `json:"total_ms"`
	Program     sequence.PlayerState `json:"program"`
	ProgramT    float64              `json:"program_t"`
}

// NewCore builds the engine and player without starting the tick loop.
func NewCore(opts Options) (*Core, error) {
	n, size, fps := opts.Dimension, opts.Size, opts.FPS
	if n == 0 {
		n = render.DefaultDimension
	}
	if size == 0 {
		size = render.DefaultSize
	}
	if fps <= 0 {
		fps = 60
	}
	eng, err := render.NewEngine(n, size, opts.Rotations)
	if err != nil {
		return nil, err
	}
	if opts.Appearance != nil {
		eng.Appearance = *opts.Appearance
	}

	c := &Core{
		eng:       eng,
		drivers:   opts.Drivers,
		fps:       fps,
		startTime: time.Now(),
	}
	// Hooks run inside Step, with c.mu held.
	c.seq = sequence.NewPlayer(sequence.Hooks{
		SetDimension:     eng.SetDimension,
		SetPlaneVelocity: eng.SetPlaneVelocity,
	})
	if opts.Program != nil {
		if err := c.seq.Load(*opts.Program); err != nil {
			return nil, err
		}
		c.seq.Start()
	}
	return c, nil
}

// InitCore builds a Core and starts its tick loop until ctx ends or Close.
func InitCore(ctx context.Context, opts Options) (*Core, error) {
	c, err := NewCore(opts)
	if err != nil {
		return nil, err
	}
	c.Start(ctx)
	return c, nil
}

// AddDriver registers a frame sink.
func (c *Core) AddDriver(d render.Driver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drivers = append(c.drivers, d)
}

// Start runs the frame/timeline loop in a goroutine.
func (c *Core) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	dt := time.Second / time.Duration(c.fps)
	log.Info().Int("fps", c.fps).Int("dimension", c.eng.Dimension()).Msg("tick loop started")
	go func() {
		defer close(c.done)
		tick := time.NewTicker(dt)
		defer tick.Stop()
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tick.C:
				c.Step(now.Sub(last).Seconds())
				last = now
			}
		}
	}()
}

// Close stops the tick loop and waits for it to exit.
func (c *Core) Close() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel = nil
}

// Step advances the program and the engine by dt seconds and writes the frame
// to every driver.
func (c *Core) Step(dt float64) render.Frame {
	c.mu.Lock()
	if !c.eng.Paused() {
		c.seq.Tick(dt)
	}
	c.eng.Tick(dt)
	f := c.eng.Frame()
	c.frameID = f.FrameID
	drivers := append([]render.Driver(nil), c.drivers...)
	c.mu.Unlock()

	for _, d := range drivers {
		if err := d.Write(f); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
	return f
}

// With runs f with exclusive access to the engine and player.
func (c *Core) With(f func(eng *render.Engine, seq *sequence.Player) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return f(c.eng, c.seq)
}

// Topology returns the current topology.
func (c *Core) Topology() render.Topology {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng.Topology()
}

func (c *Core) FPS() int { return c.fps }

func (c *Core) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		FrameID:     c.frameID,
		UptimeS:     time.Since(c.startTime).Seconds(),
		FPS:         c.fps,
		Dimension:   c.eng.Dimension(),
		Size:        c.eng.Size(),
		Paused:      c.eng.Paused(),
		Corrections: c.eng.Corrections(),
		TotalMS:     c.eng.Last.TotalMS,
		Program:     c.seq.State,
		ProgramT:    c.seq.Now(),
	}
}
