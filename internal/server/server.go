package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/zerolog"

	"github.com/joeblew999/geo-process/internal/api"
	"github.com/joeblew999/geo-process/internal/db"
	"github.com/joeblew999/geo-process/internal/logger"
	"github.com/joeblew999/geo-process/internal/metrics"
	"github.com/joeblew999/geo-process/internal/process"
	"github.com/joeblew999/geo-process/internal/process/distbear"
	"github.com/joeblew999/geo-process/internal/service"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	NoDB    bool // skip opening DuckDB

	// LegacyBearing selects the (270 + atan2) bearing remap.
	LegacyBearing bool

	Logger *zerolog.Logger
}

// Server is the geo process HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	services *api.Services
	metrics  *metrics.Provider
	log      *zerolog.Logger
}

// New creates a new geo process server.
func New(cfg Config) *Server {
	mux := http.NewServeMux()

	log := cfg.Logger
	if log == nil {
		l := zerolog.Nop()
		log = &l
	}

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("geo-process API", "1.0.0")
	humaConfig.Info.Description = "Geoprocessing API: discover processes and execute them against GeoJSON, source files and DuckDB tables."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	prom := metrics.Init(metrics.BuildInfo{Version: "0.1.0"})

	conv := distbear.ClockwiseFromNorth
	if cfg.LegacyBearing {
		conv = distbear.OffsetAtan2
	}
	registry := process.NewRegistry(log, prom)
	registry.MustRegister(distbear.New(conv))

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humaAPI,
		metrics: prom,
		log:     log,
	}

	// Initialize DuckDB connection
	if !cfg.NoDB {
		conn, err := db.Get(db.Config{
			DataDir: cfg.DataDir,
			DBName:  "geo",
			Logger:  log,
		})
		if err != nil {
			log.Warn().Err(err).Msg("duckdb unavailable, table sources disabled")
		} else {
			s.db = conn
		}
	}

	s.services = &api.Services{
		Registry: registry,
		Source:   service.NewSourceService(cfg.DataDir),
		Bus:      service.NewEventBus(),
		DB:       s.db,
		Metrics:  prom,
		Log:      log,
	}

	humaAPI.UseMiddleware(s.requestLogger)
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Registry returns the process registry.
func (s *Server) Registry() *process.Registry {
	return s.services.Registry
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return db.Close()
}

func (s *Server) routes() {
	api.RegisterRoutes(s.humaAPI, s.services)

	s.mux.Handle("/metrics", s.metrics.Handler())
	s.mux.HandleFunc("/{$}", s.handleRoot)
}

// requestLogger tags each request with an ID and logs its outcome.
func (s *Server) requestLogger(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	reqCtx := logger.WithRequestID(ctx.Context(), ctx.Header("X-Request-ID"))
	ctx = huma.WithContext(ctx, reqCtx)
	ctx.SetHeader("X-Request-ID", logger.RequestID(reqCtx))

	next(ctx)

	logger.FromContext(reqCtx, s.log).Info().
		Str("method", ctx.Method()).
		Str("path", ctx.URL().Path).
		Int("status", ctx.Status()).
		Dur("elapsed", time.Since(start)).
		Msg("request")
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"service":"geo-process","status":"running"}`))
}
