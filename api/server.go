package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/invopop/jsonschema"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/vacuumworld/transport/websocket"
	"github.com/wricardo/mcp-training/vacuumworld/world/config"
	"github.com/wricardo/mcp-training/vacuumworld/world/model"
	"github.com/wricardo/mcp-training/vacuumworld/world/report"
	"github.com/wricardo/mcp-training/vacuumworld/world/service"
)

// Server represents the REST API server
type Server struct {
	service service.SolverService
	hub     *websocket.Hub
	router  *mux.Router
	log     logrus.FieldLogger
}

// NewServer creates a new API server. hub may be nil, in which case /ws is not served.
func NewServer(solver service.SolverService, hub *websocket.Hub, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		service: solver,
		hub:     hub,
		router:  mux.NewRouter(),
		log:     logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Instances
	api.HandleFunc("/instances", s.handleListInstances).Methods("GET")
	api.HandleFunc("/instances", s.handleCreateInstance).Methods("POST")
	api.HandleFunc("/instances/{name}", s.handleGetInstance).Methods("GET")
	api.HandleFunc("/instances/{name}/grid", s.handleGetGrid).Methods("GET")
	api.HandleFunc("/instances/{name}/solve", s.handleSolveInstance).Methods("POST")

	// Ad-hoc problems
	api.HandleFunc("/solve", s.handleSolve).Methods("POST")

	// Runs
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleDeleteRun).Methods("DELETE")

	api.HandleFunc("/schema", s.handleSchema).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	if s.hub != nil {
		s.router.HandleFunc("/ws", s.handleWebSocket)
	}
}

// Router exposes the mux router so callers can mount extra handlers
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidConfiguration), errors.Is(err, config.ErrInvalidInstance):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	respondError(w, status, err.Error())
}

// Instance Handlers

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := s.service.ListInstances(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if instances == nil {
		instances = []*service.InstanceInfo{}
	}

	respondJSON(w, http.StatusOK, instances)
}

func (s *Server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	inst, err := s.service.LoadInstance(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, inst)
}

func (s *Server) handleGetGrid(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	inst, err := s.service.LoadInstance(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	m, err := inst.Build()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, report.RenderModel(m))
}

func (s *Server) handleCreateInstance(w http.ResponseWriter, r *http.Request) {
	var inst model.Instance
	if err := json.NewDecoder(r.Body).Decode(&inst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(inst.Name) == "" {
		respondError(w, http.StatusBadRequest, "Instance name is required")
		return
	}

	if err := s.service.SaveInstance(r.Context(), inst.Name, &inst); err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Instance saved successfully",
		"instance_id": inst.Name,
	})
}

// Solve Handlers

func (s *Server) handleSolveInstance(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	run, err := s.service.Solve(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var inst model.Instance
	if err := json.NewDecoder(r.Body).Decode(&inst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	run, err := s.service.SolveInstance(r.Context(), &inst)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// Run Handlers

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	query := r.URL.Query()
	total := len(runs)

	if instance := query.Get("instance"); instance != "" {
		filtered := make([]*service.RunReport, 0, len(runs))
		for _, run := range runs {
			if run.InstanceName == instance {
				filtered = append(filtered, run)
			}
		}
		runs = filtered
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(runs) {
			runs = runs[:l]
		}
	}
	if runs == nil {
		runs = []*service.RunReport{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"total": total,
		"runs":  runs,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := s.service.GetRun(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.service.DeleteRun(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Run %s deleted", id),
	})
}

// Schema Handler

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, InstanceSchema())
}

// InstanceSchema returns the JSON schema of the instance file format
func InstanceSchema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(&model.Instance{})
	schema.Title = "Vacuum world instance"
	return schema
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	instance := r.URL.Query().Get("instance")

	// An empty instance subscribes to every run
	if instance != websocket.AllInstances {
		if _, err := s.service.LoadInstance(r.Context(), instance); err != nil {
			http.Error(w, "Unknown instance", http.StatusNotFound)
			return
		}
	}

	s.hub.ServeWS(w, r, instance)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
