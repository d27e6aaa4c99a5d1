package api

import (
	"net/http"

	"github.com/dzahariev/respite-users/common"
	"github.com/dzahariev/respite-users/domain"
)

// Home is an API root route controller
func (server *Server) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := common.GetLogger(ctx)
	logger.Debug("Home request received")
	JSON(w, http.StatusOK, []string{domain.UsersResource})
}

// HealthStatus is the body of the health check.
type HealthStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Health reports whether the store answers
func (server *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := common.GetLogger(ctx)
	err := server.Store.Ping(ctx)
	if err != nil {
		logger.Error("Store is not reachable", "error", err)
		JSON(w, http.StatusServiceUnavailable, HealthStatus{Status: "unavailable", Error: err.Error()})
		return
	}
	JSON(w, http.StatusOK, HealthStatus{Status: "ok"})
}
