package api

import (
	"context"
	"net/http"
	"strconv"

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

// Component statuses, ordered from best to worst.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
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

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"catalog": s.checkCatalog(),
		"sse":     s.checkSSEManager(),
	}

	overall := statusHealthy
	for _, c := range components {
		overall = worse(overall, c.Status)
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkCatalog reports whether books are loaded and whether the last reload worked.
func (s *Server) checkCatalog() ComponentHealth {
	var lastError string
	if s.catalog != nil {
		lastError = s.catalog.Status().LastError
	}

	if !s.controller.Loaded() {
		msg := "no books loaded"
		if lastError != "" {
			msg = lastError
		}
		return ComponentHealth{Status: statusUnhealthy, Message: msg}
	}

	if lastError != "" {
		return ComponentHealth{Status: statusDegraded, Message: "serving stale books: " + lastError}
	}

	return ComponentHealth{
		Status:  statusHealthy,
		Message: strconv.Itoa(s.controller.Len()) + " books",
	}
}

// checkSSEManager reports the event stream state.
func (s *Server) checkSSEManager() ComponentHealth {
	if s.events == nil {
		return ComponentHealth{
			Status:  statusDegraded,
			Message: "event stream not configured",
		}
	}
	return ComponentHealth{
		Status:  statusHealthy,
		Message: strconv.Itoa(s.events.ClientCount()) + " clients",
	}
}

func worse(a, b string) string {
	rank := map[string]int{statusHealthy: 0, statusDegraded: 1, statusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
