package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/wricardo/mcp-training/vacuumworld/world/config"
	"github.com/wricardo/mcp-training/vacuumworld/world/model"
	"github.com/wricardo/mcp-training/vacuumworld/world/report"
	"github.com/wricardo/mcp-training/vacuumworld/world/runs"
	"github.com/wricardo/mcp-training/vacuumworld/world/service"
)

// MockSolverService implements service.SolverService for testing
type MockSolverService struct {
	ListInstancesFunc func(ctx context.Context) ([]*service.InstanceInfo, error)
	LoadInstanceFunc  func(ctx context.Context, name string) (*model.Instance, error)
	SaveInstanceFunc  func(ctx context.Context, name string, inst *model.Instance) error
	SolveFunc         func(ctx context.Context, name string) (*service.RunReport, error)
	SolveInstanceFunc func(ctx context.Context, inst *model.Instance) (*service.RunReport, error)
	GetRunFunc        func(ctx context.Context, id string) (*service.RunReport, error)
	ListRunsFunc      func(ctx context.Context) ([]*service.RunReport, error)
	DeleteRunFunc     func(ctx context.Context, id string) error
}

func (m *MockSolverService) ListInstances(ctx context.Context) ([]*service.InstanceInfo, error) {
	if m.ListInstancesFunc != nil {
		return m.ListInstancesFunc(ctx)
	}
	return []*service.InstanceInfo{}, nil
}

func (m *MockSolverService) LoadInstance(ctx context.Context, name string) (*model.Instance, error) {
	if m.LoadInstanceFunc != nil {
		return m.LoadInstanceFunc(ctx, name)
	}
	return config.BuiltinInstance(), nil
}

func (m *MockSolverService) SaveInstance(ctx context.Context, name string, inst *model.Instance) error {
	if m.SaveInstanceFunc != nil {
		return m.SaveInstanceFunc(ctx, name, inst)
	}
	return nil
}

func (m *MockSolverService) Solve(ctx context.Context, name string) (*service.RunReport, error) {
	if m.SolveFunc != nil {
		return m.SolveFunc(ctx, name)
	}
	return &service.RunReport{ID: "run-1", InstanceName: name, Summary: &report.Summary{Solved: true}}, nil
}

func (m *MockSolverService) SolveInstance(ctx context.Context, inst *model.Instance) (*service.RunReport, error) {
	if m.SolveInstanceFunc != nil {
		return m.SolveInstanceFunc(ctx, inst)
	}
	return &service.RunReport{ID: "run-2", InstanceName: "adhoc", Summary: &report.Summary{Solved: true}}, nil
}

func (m *MockSolverService) GetRun(ctx context.Context, id string) (*service.RunReport, error) {
	if m.GetRunFunc != nil {
		return m.GetRunFunc(ctx, id)
	}
	return &service.RunReport{ID: id}, nil
}

func (m *MockSolverService) ListRuns(ctx context.Context) ([]*service.RunReport, error) {
	if m.ListRunsFunc != nil {
		return m.ListRunsFunc(ctx)
	}
	return []*service.RunReport{}, nil
}

func (m *MockSolverService) DeleteRun(ctx context.Context, id string) error {
	if m.DeleteRunFunc != nil {
		return m.DeleteRunFunc(ctx, id)
	}
	return nil
}

func newTestServer(svc service.SolverService) *Server {
	logger, _ := test.NewNullLogger()
	return NewServer(svc, nil, logger)
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		var data []byte
		switch b := body.(type) {
		case string:
			data = []byte(b)
		default:
			var err error
			data, err = json.Marshal(b)
			if err != nil {
				t.Fatalf("Failed to marshal body: %v", err)
			}
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestListInstances(t *testing.T) {
	mock := &MockSolverService{
		ListInstancesFunc: func(ctx context.Context) ([]*service.InstanceInfo, error) {
			return []*service.InstanceInfo{
				{InstanceID: "instance1", Rows: 4, Columns: 5, DirtyCells: 3},
				{InstanceID: "instance2", Rows: 4, Columns: 5, DirtyCells: 4},
			}, nil
		},
	}

	rr := doRequest(t, newTestServer(mock), "GET", "/api/instances", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var infos []service.InstanceInfo
	if err := json.Unmarshal(rr.Body.Bytes(), &infos); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(infos) != 2 || infos[1].DirtyCells != 4 {
		t.Errorf("Unexpected instances: %+v", infos)
	}
}

func TestGetInstance_NotFound(t *testing.T) {
	mock := &MockSolverService{
		LoadInstanceFunc: func(ctx context.Context, name string) (*model.Instance, error) {
			return nil, config.ErrInstanceNotFound
		},
	}

	rr := doRequest(t, newTestServer(mock), "GET", "/api/instances/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}

	var body map[string]string
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body["error"] == "" {
		t.Error("Expected error message in body")
	}
}

func TestGetGrid(t *testing.T) {
	rr := doRequest(t, newTestServer(&MockSolverService{}), "GET", "/api/instances/instance1/grid", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("Expected text/plain, got %s", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "| A |") {
		t.Errorf("Expected agent marker in grid, got:\n%s", rr.Body.String())
	}
}

func TestCreateInstance(t *testing.T) {
	var savedName string
	mock := &MockSolverService{
		SaveInstanceFunc: func(ctx context.Context, name string, inst *model.Instance) error {
			savedName = name
			return inst.Validate()
		},
	}
	server := newTestServer(mock)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{
			name: "valid",
			body: model.Instance{
				Name: "strip", Rows: 1, Columns: 3,
				Initial: model.Position{Row: 1, Col: 1},
				Dirty:   []model.Position{{Row: 1, Col: 3}},
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing name",
			body:       model.Instance{Rows: 1, Columns: 1, Initial: model.Position{Row: 1, Col: 1}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "invalid configuration",
			body: model.Instance{
				Name: "bad", Rows: 0, Columns: 3,
				Initial: model.Position{Row: 1, Col: 1},
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, server, "POST", "/api/instances", tt.body)
			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
		})
	}

	if savedName != "bad" {
		t.Errorf("Expected last saved name 'bad', got %q", savedName)
	}
}

func TestSolveInstance(t *testing.T) {
	var solved string
	mock := &MockSolverService{
		SolveFunc: func(ctx context.Context, name string) (*service.RunReport, error) {
			solved = name
			return &service.RunReport{ID: "r1", InstanceName: name, Summary: &report.Summary{Solved: true, Moves: 7}}, nil
		},
	}

	rr := doRequest(t, newTestServer(mock), "POST", "/api/instances/instance2/solve", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if solved != "instance2" {
		t.Errorf("Expected instance2 to be solved, got %q", solved)
	}

	var run service.RunReport
	if err := json.Unmarshal(rr.Body.Bytes(), &run); err != nil {
		t.Fatalf("Failed to decode run: %v", err)
	}
	if run.Summary == nil || run.Summary.Moves != 7 {
		t.Errorf("Unexpected run: %+v", run)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("wrapped: %w", service.ErrNotFound), http.StatusNotFound},
		{"run not found", runs.ErrRunNotFound, http.StatusNotFound},
		{"invalid configuration", fmt.Errorf("%w: rows", model.ErrInvalidConfiguration), http.StatusBadRequest},
		{"invalid instance", config.ErrInvalidInstance, http.StatusBadRequest},
		{"other", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockSolverService{
				SolveInstanceFunc: func(ctx context.Context, inst *model.Instance) (*service.RunReport, error) {
					return nil, tt.err
				},
			}
			rr := doRequest(t, newTestServer(mock), "POST", "/api/solve", model.Instance{Rows: 1, Columns: 1})
			if rr.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestListRuns(t *testing.T) {
	now := time.Now()
	mock := &MockSolverService{
		ListRunsFunc: func(ctx context.Context) ([]*service.RunReport, error) {
			return []*service.RunReport{
				{ID: "c", InstanceName: "instance1", StartedAt: now},
				{ID: "b", InstanceName: "instance2", StartedAt: now.Add(-time.Minute)},
				{ID: "a", InstanceName: "instance1", StartedAt: now.Add(-time.Hour)},
			}, nil
		},
	}
	server := newTestServer(mock)

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantFirst string
	}{
		{"all", "", 3, "c"},
		{"limit", "?limit=2", 2, "c"},
		{"instance filter", "?instance=instance2", 1, "b"},
		{"bad limit ignored", "?limit=abc", 3, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, server, "GET", "/api/runs"+tt.query, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}

			var body struct {
				Count int                  `json:"count"`
				Total int                  `json:"total"`
				Runs  []*service.RunReport `json:"runs"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if body.Count != tt.wantCount || len(body.Runs) != tt.wantCount {
				t.Errorf("Expected %d runs, got %d", tt.wantCount, body.Count)
			}
			if body.Total != 3 {
				t.Errorf("Expected total 3, got %d", body.Total)
			}
			if len(body.Runs) > 0 && body.Runs[0].ID != tt.wantFirst {
				t.Errorf("Expected first run %s, got %s", tt.wantFirst, body.Runs[0].ID)
			}
		})
	}
}

func TestDeleteRun(t *testing.T) {
	mock := &MockSolverService{
		DeleteRunFunc: func(ctx context.Context, id string) error {
			if id != "known" {
				return runs.ErrRunNotFound
			}
			return nil
		},
	}
	server := newTestServer(mock)

	if rr := doRequest(t, server, "DELETE", "/api/runs/known", nil); rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if rr := doRequest(t, server, "DELETE", "/api/runs/unknown", nil); rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestSchema(t *testing.T) {
	rr := doRequest(t, newTestServer(&MockSolverService{}), "GET", "/api/schema", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var schema map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &schema); err != nil {
		t.Fatalf("Failed to decode schema: %v", err)
	}
	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected properties in schema, got %v", schema)
	}
	for _, field := range []string{"rows", "columns", "action_costs", "initial_position", "dirty"} {
		if _, ok := props[field]; !ok {
			t.Errorf("Expected schema property %s", field)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rr := doRequest(t, newTestServer(&MockSolverService{}), "PUT", "/api/runs", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
}

func TestWebSocketRouteDisabledWithoutHub(t *testing.T) {
	rr := doRequest(t, newTestServer(&MockSolverService{}), "GET", "/ws", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 without hub, got %d", rr.Code)
	}
}

// End-to-end through the real service, config manager and run store
func TestIntegration_SolveAndFetchRun(t *testing.T) {
	dir := t.TempDir()
	data, _ := json.Marshal(config.BuiltinInstance())
	if err := os.WriteFile(filepath.Join(dir, "instance1.json"), data, 0644); err != nil {
		t.Fatalf("Failed to write instance: %v", err)
	}

	manager, err := config.NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	logger, _ := test.NewNullLogger()
	svc := service.NewSolverService(manager, runs.NewStore(), service.WithLogger(logger))
	server := NewServer(svc, nil, logger)

	rr := doRequest(t, server, "POST", "/api/instances/instance1/solve", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var run service.RunReport
	if err := json.Unmarshal(rr.Body.Bytes(), &run); err != nil {
		t.Fatalf("Failed to decode run: %v", err)
	}
	if !run.Summary.Solved || len(run.Summary.FirstExpanded) != 5 {
		t.Errorf("Unexpected summary: %+v", run.Summary)
	}

	rr = doRequest(t, server, "GET", "/api/runs/"+run.ID, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected stored run, got %d", rr.Code)
	}

	rr = doRequest(t, server, "POST", "/api/solve", map[string]interface{}{
		"rows": 1, "columns": 2,
		"initial_position": map[string]int{"row": 1, "col": 1},
		"dirty":            []map[string]int{{"row": 1, "col": 2}},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected ad-hoc solve to succeed, got %d: %s", rr.Code, rr.Body.String())
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &run); err != nil {
		t.Fatalf("Failed to decode run: %v", err)
	}
	if run.Summary.Sequence != "Right -> Suck" {
		t.Errorf("Expected 'Right -> Suck', got %q", run.Summary.Sequence)
	}

	rr = doRequest(t, server, "POST", "/api/solve", map[string]interface{}{
		"rows": 1, "columns": 2,
		"initial_position": map[string]int{"row": 1, "col": 3},
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for out-of-bounds start, got %d", rr.Code)
	}
}

func TestSolve_RejectsOversizedInstance(t *testing.T) {
	manager, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	logger, _ := test.NewNullLogger()
	svc := service.NewSolverService(manager, runs.NewStore(), service.WithLogger(logger))
	server := NewServer(svc, nil, logger)

	dirty := make([]map[string]int, 0, 12)
	for i := 1; i <= 12; i++ {
		dirty = append(dirty, map[string]int{"row": i * 5, "col": 65 - i*5})
	}

	start := time.Now()
	rr := doRequest(t, server, "POST", "/api/solve", map[string]interface{}{
		"name": "huge", "rows": 64, "columns": 64,
		"initial_position": map[string]int{"row": 1, "col": 1},
		"dirty":            dirty,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for oversized instance, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "exceeds the limit") {
		t.Errorf("Expected limit error, got %s", rr.Body.String())
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected immediate rejection, took %v", elapsed)
	}
}
