package server

import (
	"context"
	"net/http"
	"sort"
	"time"
)

const healthTimeout = 2 * time.Second

// HealthResponse reports the state of each backing service
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// HealthHandler pings every registered component. Any failure makes the response 503.
func (s *Server) HealthHandler() http.HandlerFunc {
	names := make([]string, 0, len(s.deps.HealthChecks))
	for name := range s.deps.HealthChecks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := HealthResponse{Status: "ok", Components: map[string]string{}}
		status := http.StatusOK
		for _, name := range names {
			if err := s.deps.HealthChecks[name](ctx); err != nil {
				resp.Components[name] = "down"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = "up"
		}
		writeJSON(w, status, resp)
	}
}
