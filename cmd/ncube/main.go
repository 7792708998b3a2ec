package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-ncube/internal/app"
	"github.com/coreman2200/funtimes-ncube/internal/config"
	"github.com/coreman2200/funtimes-ncube/internal/driver/throttle"
	"github.com/coreman2200/funtimes-ncube/internal/record"
	"github.com/coreman2200/funtimes-ncube/internal/render"
	"github.com/coreman2200/funtimes-ncube/internal/sequence"
	"github.com/coreman2200/funtimes-ncube/internal/store"
	"github.com/coreman2200/funtimes-ncube/internal/ws"
)

func main() {
	// ---- Flags (remain usable; config.yaml can override most) ----
	var (
		dimension  = flag.Int("dimension", render.DefaultDimension, "cube dimension (3..9)")
		size       = flag.Float64("size", render.DefaultSize, "edge length")
		fps        = flag.Int("fps", 60, "target ticks per second")
		previewFPS = flag.Int("preview-fps", 30, "max frames per second sent to /ws clients")
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		scenesDB   = flag.String("scenes-db", "scenes.db", "sqlite scene library (empty disables)")
		program    = flag.String("program", "", "rotation program to start (JSON or YAML)")
		scene      = flag.String("scene", "", "scene record to import at startup (.json or .json.zst)")
		logLevel   = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional) ----
	var cfg *config.Config
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
	} else {
		cfg = c
	}

	// ---- Effective params (config overrides flags where available) ----
	eDim, eSize, eFPS := *dimension, *size, *fps
	eAddr, eDB, eProgram, eLevel := *addr, *scenesDB, *program, *logLevel
	opts := app.Options{}
	if cfg != nil {
		if cfg.Dimension > 0 {
			eDim = cfg.Dimension
		}
		eSize = firstNonZeroFloat(cfg.Size, eSize)
		if cfg.FPS > 0 {
			eFPS = cfg.FPS
		}
		eAddr = firstNonEmpty(cfg.Addr, eAddr)
		eDB = firstNonEmpty(cfg.ScenesDB, eDB)
		eProgram = firstNonEmpty(cfg.Program, eProgram)
		eLevel = firstNonEmpty(cfg.LogLevel, eLevel)
		opts.Rotations = cfg.RotationState(eDim)
		opts.Appearance = appearance(cfg.Appearance, eSize)
	}
	if lvl, err := zerolog.ParseLevel(eLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", eLevel).Msg("unknown log level; using info")
	}
	opts.Dimension, opts.Size, opts.FPS = eDim, eSize, eFPS

	if eProgram != "" {
		prog, err := sequence.ReadProgram(eProgram)
		if err != nil {
			log.Fatal().Err(err).Msg("program")
		}
		opts.Program = &prog
	}

	// ---- Core ----
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	core, err := app.NewCore(opts)
	if err != nil {
		log.Fatal().Err(err).Int("dimension", eDim).Msg("engine init failed")
	}
	if *scene != "" {
		rec, err := record.ReadFile(*scene)
		if err == nil {
			err = core.With(func(eng *render.Engine, _ *sequence.Player) error { return eng.Import(rec) })
		}
		if err != nil {
			log.Warn().Err(err).Str("path", *scene).Msg("scene import failed; using defaults")
		}
	}

	// ---- Scene library ----
	var scenes *store.Store
	if eDB != "" {
		scenes, err = store.Open(eDB)
		if err != nil {
			log.Warn().Err(err).Str("path", eDB).Msg("scene library unavailable")
			scenes = nil
		}
	}

	// ---- State ----
	state := ws.NewState(core, scenes)
	state.ConfigPath = *configPath
	if cfg != nil {
		state.Base = *cfg
	} else {
		state.Base = config.Config{Addr: eAddr, ScenesDB: eDB, Program: eProgram, LogLevel: eLevel}
	}
	preview := time.Second / time.Duration(max(1, *previewFPS))
	core.AddDriver(throttle.New(state, preview))

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", state.HandleFramesWS)
	mux.HandleFunc("/topology", state.HandleTopology)
	mux.HandleFunc("/diag", state.HandleDiagWS)
	mux.HandleFunc("/control", state.HandleControlWS)
	mux.HandleFunc("/health", state.HandleHealth)

	srv := &http.Server{
		Addr:         eAddr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run tick loop & server ----
	core.Start(ctx)
	go func() {
		log.Info().Str("addr", eAddr).Int("dimension", eDim).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	core.Close()
	if scenes != nil {
		_ = scenes.Close()
	}
}

// appearance merges the configured appearance over the defaults.
func appearance(a config.Appearance, size float64) *render.Appearance {
	out := render.DefaultAppearance(size)
	out.EdgeThickness = firstNonZeroFloat(a.EdgeThickness, out.EdgeThickness)
	if a.EdgeColor != nil {
		out.EdgeColor = *a.EdgeColor
	}
	if a.FaceColor != nil {
		out.FaceColor = *a.FaceColor
	}
	out.Unlit = a.Unlit
	return &out
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func firstNonZeroFloat(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
