package main

import (
	"flag"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-ncube/internal/driver/logdriver"
	"github.com/coreman2200/funtimes-ncube/internal/record"
	"github.com/coreman2200/funtimes-ncube/internal/render"
	"github.com/coreman2200/funtimes-ncube/internal/selftest"
	"github.com/coreman2200/funtimes-ncube/internal/sequence"
)

// ncubesim runs the engine headless at a fixed step, optionally under a
// rotation program, and can export the final scene.
func main() {
	var (
		dimension = flag.Int("dimension", render.DefaultDimension, "cube dimension (3..9)")
		size      = flag.Float64("size", render.DefaultSize, "edge length")
		fps       = flag.Int("fps", 60, "simulation ticks per second")
		seconds   = flag.Float64("seconds", 10, "simulated duration; ignored when a program ends first")
		program   = flag.String("program", "", "rotation program (JSON or YAML)")
		test      = flag.String("test", "", "self test program: plane_sweep | dimension_sweep")
		scene     = flag.String("import", "", "scene record to start from")
		export    = flag.String("export", "", "write the final scene here (.json or .json.zst)")
		logEvery  = flag.Int("log-every", 60, "log every Nth frame")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	drv := logdriver.New(*logEvery)
	eng, err := render.NewEngine(*dimension, *size, nil, drv)
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}
	if *scene != "" {
		rec, err := record.ReadFile(*scene)
		if err != nil {
			log.Fatal().Err(err).Str("path", *scene).Msg("read scene")
		}
		if err := eng.Import(rec); err != nil {
			log.Fatal().Err(err).Str("path", *scene).Msg("import scene")
		}
	}

	player := sequence.NewPlayer(sequence.Hooks{
		SetDimension:     eng.SetDimension,
		SetPlaneVelocity: eng.SetPlaneVelocity,
	})
	var prog *sequence.Program
	switch {
	case *program != "":
		p, err := sequence.ReadProgram(*program)
		if err != nil {
			log.Fatal().Err(err).Msg("program")
		}
		prog = &p
	case *test != "":
		p, err := selftest.Plan(selftest.Kind(*test), eng.Dimension(), 1)
		if err != nil {
			log.Fatal().Err(err).Msg("self test")
		}
		prog = &p
	}
	if prog != nil {
		if err := player.Load(*prog); err != nil {
			log.Fatal().Err(err).Msg("load program")
		}
		player.Start()
	}

	dt := 1.0 / float64(max(1, *fps))
	steps := int(*seconds / dt)
	start := time.Now()
	frames := 0
	for i := 0; i < steps; i++ {
		player.Tick(dt)
		if err := eng.RenderOnce(dt); err != nil {
			log.Fatal().Err(err).Msg("render")
		}
		frames++
		if prog != nil && player.State == sequence.Idle {
			break
		}
	}
	elapsed := time.Since(start)

	top := eng.Topology()
	log.Info().
		Str("frames", humanize.Comma(int64(frames))).
		Str("simulated", (time.Duration(float64(frames)*dt*float64(time.Second))).String()).
		Str("wall", elapsed.Round(time.Millisecond).String()).
		Int("dimension", top.Dimension).
		Str("vertices", humanize.Comma(int64(len(top.Vertices)))).
		Str("edges", humanize.Comma(int64(len(top.Edges)))).
		Str("triangles", humanize.Comma(int64(len(top.Faces)))).
		Int("corrections", eng.Corrections()).
		Msg("simulation done")

	if *export != "" {
		if err := record.WriteFile(*export, eng.Export()); err != nil {
			log.Fatal().Err(err).Str("path", *export).Msg("export")
		}
		st, err := os.Stat(*export)
		if err == nil {
			log.Info().Str("path", *export).Str("size", humanize.Bytes(uint64(st.Size()))).Msg("scene exported")
		}
	}
}
