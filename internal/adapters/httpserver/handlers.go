package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	domainFleet "github.com/andrescamacho/skamkraft-go/internal/domain/fleet"
	domainTrading "github.com/andrescamacho/skamkraft-go/internal/domain/trading"
	"github.com/andrescamacho/skamkraft-go/internal/infrastructure/logging"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse represents an HTTP error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// TasksResponse lists the queue: the running task, pending ones in dispatch
// order and the newest finished ones
type TasksResponse struct {
	Active  *domainFleet.Task  `json:"active"`
	Pending []domainFleet.Task `json:"pending"`
	History []domainFleet.Task `json:"history"`
}

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	Type        domainFleet.TaskType `json:"type" validate:"required,oneof=NAVIGATE MINE CONTRACT_DELIVERY"`
	ShipSymbol  string               `json:"shipSymbol" validate:"required"`
	Waypoint    string               `json:"waypoint" validate:"required"`
	TargetUnits int                  `json:"targetUnits" validate:"min=0"`
	ContractID  string               `json:"contractId" validate:"required_if=Type CONTRACT_DELIVERY"`
	TradeSymbol string               `json:"tradeSymbol" validate:"required_if=Type CONTRACT_DELIVERY"`
	Units       int                  `json:"units" validate:"min=0"`
	Priority    int                  `json:"priority" validate:"min=0,max=100"`
}

// RoutesResponse wraps the ranked routes from the last market scan
type RoutesResponse struct {
	Routes         []domainTrading.TradeRoute `json:"routes"`
	MarketsScanned int                        `json:"marketsScanned"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		s.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "not_ready",
			Message: "session is not initialized",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ready",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Status(r.Context()))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 20)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	coordinator := s.session.Fleet()
	resp := TasksResponse{
		Pending: coordinator.PendingTasks(),
		History: coordinator.History(limit),
	}
	if active, ok := coordinator.ActiveTask(); ok {
		resp.Active = &active
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.session.Fleet().Task(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, domainFleet.ErrTaskNotFound.Error(), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	coordinator := s.session.Fleet()
	var (
		task domainFleet.Task
		err  error
	)
	switch req.Type {
	case domainFleet.TaskTypeNavigate:
		task, err = coordinator.CreateNavigationTask(req.ShipSymbol, req.Waypoint, req.Priority)
	case domainFleet.TaskTypeMine:
		task, err = coordinator.CreateMiningTask(req.ShipSymbol, req.Waypoint, req.TargetUnits, req.Priority)
	case domainFleet.TaskTypeContractDelivery:
		task, err = coordinator.CreateContractDeliveryTask(req.ShipSymbol, req.ContractID, req.TradeSymbol, req.Waypoint, req.Units, req.Priority)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domainFleet.ErrInvalidTaskParams) || errors.Is(err, domainFleet.ErrUnknownTaskType) {
			status = http.StatusBadRequest
		}
		s.writeError(w, err.Error(), status)
		return
	}

	logging.FromContext(r.Context()).Info("task-created",
		zap.String("task_id", task.ID),
		zap.String("type", string(task.Type)))
	s.writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	coordinator := s.session.Fleet()

	task, ok := coordinator.Task(id)
	if !ok {
		s.writeError(w, domainFleet.ErrTaskNotFound.Error(), http.StatusNotFound)
		return
	}
	if !coordinator.CancelTask(id) {
		s.writeError(w, "task is "+string(task.Status)+" and can no longer be cancelled", http.StatusConflict)
		return
	}
	logging.FromContext(r.Context()).Info("task-cancel-requested", zap.String("task_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "max", 10)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	bot := s.session.Trading()
	routes := bot.Routes(limit)
	if raw := r.URL.Query().Get("minMargin"); raw != "" {
		minMargin, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, "minMargin must be a number", http.StatusBadRequest)
			return
		}
		routes = domainTrading.FilterByMargin(routes, minMargin)
	}
	if routes == nil {
		routes = []domainTrading.TradeRoute{}
	}

	s.writeJSON(w, http.StatusOK, RoutesResponse{
		Routes:         routes,
		MarketsScanned: len(bot.Snapshots()),
	})
}

func intQuery(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("response-encode-failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
