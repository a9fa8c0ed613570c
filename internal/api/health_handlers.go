package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := make(map[string]ComponentHealth, 3)
	overall := "healthy"

	db := s.checkDatabase(ctx)
	components["database"] = db
	if db.Status != "healthy" {
		overall = "unhealthy"
	}

	// The catalogue stays readable without search, so index trouble only
	// degrades.
	for name, h := range map[string]ComponentHealth{
		"search": s.checkSearchIndex(),
		"sync":   s.checkSync(),
	} {
		components[name] = h
		if h.Status != "healthy" && overall == "healthy" {
			overall = "degraded"
		}
	}

	return &HealthOutput{Body: HealthResponse{Status: overall, Components: components}}, nil
}

func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.services.Database == nil {
		return ComponentHealth{Status: "unhealthy", Message: "database not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.services.Database.Ping(ctx); err != nil {
		return ComponentHealth{Status: "unhealthy", Message: err.Error()}
	}
	return ComponentHealth{Status: "healthy", Latency: time.Since(start).String()}
}

func (s *Server) checkSearchIndex() ComponentHealth {
	if s.services.Index == nil {
		return ComponentHealth{Status: "degraded", Message: "search index not configured"}
	}
	start := time.Now()
	count, err := s.services.Index.DocumentCount()
	if err != nil {
		return ComponentHealth{Status: "degraded", Message: err.Error()}
	}
	return ComponentHealth{
		Status:  "healthy",
		Latency: time.Since(start).String(),
		Message: strconv.FormatUint(count, 10) + " documents indexed",
	}
}

func (s *Server) checkSync() ComponentHealth {
	if s.services.Sync == nil {
		return ComponentHealth{Status: "degraded", Message: "index sync not running"}
	}
	st := s.services.Sync.Status()
	if st.Breaker == "open" {
		return ComponentHealth{Status: "degraded", Message: "search index unreachable, retrying"}
	}
	return ComponentHealth{Status: "healthy", Message: string(st.State)}
}
