package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	dataDir   string
	dbOK      bool
	processes func() int
}

func NewInfoHandler(svc *Services) *InfoHandler {
	h := &InfoHandler{dbOK: svc.DB != nil}
	if svc.Source != nil {
		h.dataDir = svc.Source.SourcesDir()
	}
	h.processes = func() int { return len(svc.Registry.List()) }
	return h
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name       string   `json:"name" doc:"Service name"`
	Version    string   `json:"version" doc:"Service version"`
	SourcesDir string   `json:"sources_dir" doc:"Directory scanned for GeoJSON sources"`
	DB         bool     `json:"db" doc:"Whether database is available"`
	Processes  int      `json:"processes" doc:"Number of registered processes"`
	Features   []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	features := []string{"geojson", "processes", "events", "metrics"}
	if h.dbOK {
		features = append(features, "duckdb")
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:       "geo-process",
		Version:    "0.1.0",
		SourcesDir: h.dataDir,
		DB:         h.dbOK,
		Processes:  h.processes(),
		Features:   features,
	}}, nil
}
