// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"database/sql"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"

	"github.com/joeblew999/geo-process/internal/db"
	"github.com/joeblew999/geo-process/internal/metrics"
	"github.com/joeblew999/geo-process/internal/process"
	"github.com/joeblew999/geo-process/internal/service"
)

// Services holds the service dependencies for API handlers.
// DB, Metrics and Log may be nil.
type Services struct {
	Registry *process.Registry
	Source   *service.SourceService
	Bus      *service.EventBus
	DB       *sql.DB
	Metrics  *metrics.Provider
	Log      *zerolog.Logger
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Process ID" example:"geo:distbear"`
}

type ProcessOutput struct {
	Body process.Descriptor
}

type ProcessesOutput struct {
	Body []process.Descriptor
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type TablesBody struct {
	Tables []string `json:"tables" doc:"DuckDB tables usable as feature sources"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every handler of the package.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
	NewInfoHandler(svc).RegisterRoutes(api)
	NewEventHandler(svc.Bus).RegisterRoutes(api)
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterProcesses registers process discovery and execution routes.
func (h *APIHandler) RegisterProcesses(api huma.API) {
	huma.Get(api, "/api/v1/processes", h.ListProcesses, huma.OperationTags("processes"))
	huma.Get(api, "/api/v1/processes/{id}", h.GetProcess, huma.OperationTags("processes"))
	huma.Post(api, "/api/v1/processes/{id}/execute", h.Execute, huma.OperationTags("processes"))
}

// RegisterSources registers feature source listing routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
	huma.Get(api, "/api/v1/tables", h.GetTables, huma.OperationTags("sources"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) ListProcesses(ctx context.Context, input *struct{}) (*ProcessesOutput, error) {
	return &ProcessesOutput{Body: h.svc.Registry.List()}, nil
}

func (h *APIHandler) GetProcess(ctx context.Context, input *IDInput) (*ProcessOutput, error) {
	p, ok := h.svc.Registry.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("process not found")
	}
	return &ProcessOutput{Body: p.Descriptor()}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body []service.SourceFile }, error) {
	if h.svc.Source == nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	sources, err := h.svc.Source.List()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list sources", err)
	}
	return &struct{ Body []service.SourceFile }{Body: sources}, nil
}

func (h *APIHandler) GetTables(ctx context.Context, input *struct{}) (*struct{ Body TablesBody }, error) {
	if h.svc.DB == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	tables, err := db.ListTables(ctx, h.svc.DB)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	return &struct{ Body TablesBody }{Body: TablesBody{Tables: tables}}, nil
}
