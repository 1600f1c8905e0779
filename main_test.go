package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/vacuumworld/api"
	"github.com/wricardo/mcp-training/vacuumworld/transport/mcp"
	"github.com/wricardo/mcp-training/vacuumworld/world/model"
	"github.com/wricardo/mcp-training/vacuumworld/world/runs"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Vacuum World Planner" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

func TestInitializeServices(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	solver, err := initializeServices("configs", runs.NewStoreWithLimit(10), nil)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	if solver == nil {
		t.Fatal("Expected solver service")
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	if _, err := initializeServices("/non/existent/path", runs.NewStore(), nil); err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestNewRunStore_Archive(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}
	dir := t.TempDir()

	store, err := newRunStore(10, dir)
	if err != nil {
		t.Fatalf("Failed to create run store: %v", err)
	}
	solver, err := initializeServices("configs", store, nil)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	rep, err := solver.Solve(context.Background(), "instance1")
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	reopened, err := newRunStore(10, dir)
	if err != nil {
		t.Fatalf("Failed to reopen run store: %v", err)
	}
	got, err := reopened.Get(rep.ID)
	if err != nil {
		t.Fatalf("Expected run to survive a restart, got %v", err)
	}
	if got.Summary == nil || got.Summary.Sequence != rep.Summary.Sequence {
		t.Errorf("Archived run differs from original: %+v", got.Summary)
	}

	if store, err := newRunStore(0, ""); err != nil || store == nil {
		t.Errorf("Expected in-memory store without a runs dir, got %v", err)
	}
}

func TestSolveCommand(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	err := app.Run(context.Background(), []string{"vacuumworld", "--config-dir", "configs", "solve", "instance1", "instance2"})
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"=== instance1 ===",
		"=== instance2 ===",
		"First 5 expanded search nodes:",
		"Node 1:\n  Agent Position: (2, 2)\n  Path: []",
		"Total cost of solution:",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, text)
		}
	}
	if strings.Index(text, "=== instance1 ===") > strings.Index(text, "=== instance2 ===") {
		t.Error("Expected reports in command line order")
	}
}

func TestSolveCommand_UnknownInstance(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run(context.Background(), []string{"vacuumworld", "--config-dir", "configs", "solve", "nope"})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestSolveCommand_MaxStates(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run(context.Background(), []string{"vacuumworld", "--config-dir", "configs", "solve", "--max-states", "10", "instance1"})
	if err == nil || !strings.Contains(err.Error(), "exceeds the limit") {
		t.Errorf("Expected state-space limit error, got %v", err)
	}
}

func TestSolveJobs(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}
	solver, err := initializeServices("configs", runs.NewStore(), nil)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	ctx := context.Background()

	jobs, err := solveJobs(ctx, solver, nil, nil, false)
	if err != nil || len(jobs) != 1 || jobs[0].name != "" {
		t.Errorf("Expected a single default job, got %v, %v", jobs, err)
	}

	jobs, err = solveJobs(ctx, solver, []string{"instance2"}, []string{"configs/single_cell.yaml"}, true)
	if err != nil {
		t.Fatalf("Failed to build jobs: %v", err)
	}
	if len(jobs) < 5 {
		t.Fatalf("Expected listed, named and file jobs, got %d", len(jobs))
	}
	if last := jobs[len(jobs)-1]; last.inst == nil {
		t.Error("Expected file job to carry its decoded instance")
	}

	if _, err := solveJobs(ctx, solver, nil, []string{"configs/missing.json"}, false); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestSolveAll_Parallel(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}
	solver, err := initializeServices("configs", runs.NewStore(), nil)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	jobs := []solveJob{
		{name: "instance1"},
		{name: "instance2"},
		{name: "strip", inst: &model.Instance{
			Name: "strip", Rows: 1, Columns: 4,
			Initial: model.Position{Row: 1, Col: 1},
			Dirty:   []model.Position{{Row: 1, Col: 4}},
		}},
	}

	reports, err := solveAll(context.Background(), solver, jobs, 0)
	if err != nil {
		t.Fatalf("solveAll failed: %v", err)
	}
	for i, rep := range reports {
		if rep.InstanceName != jobs[i].name {
			t.Errorf("Report %d: expected %s, got %s", i, jobs[i].name, rep.InstanceName)
		}
		if !rep.Summary.Solved {
			t.Errorf("Report %d: expected solution", i)
		}
	}
	if reports[2].Summary.Sequence != "Right -> Right -> Right -> Suck" {
		t.Errorf("Unexpected strip solution %q", reports[2].Summary.Sequence)
	}
}

func TestWaitForAPI(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	if err := waitForAPI(context.Background(), healthy.URL, 3); err != nil {
		t.Errorf("Expected healthy API, got %v", err)
	}

	start := time.Now()
	if err := waitForAPI(context.Background(), "http://127.0.0.1:1", 3); err == nil {
		t.Error("Expected error for unreachable API")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("waitForAPI took too long to give up")
	}
}

func TestMCPEndpoint(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}
	solver, err := initializeServices("configs", runs.NewStore(), nil)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.Handle("/", newHandler(api.NewServer(solver, nil, log), mcp.NewClient(srv.URL)))

	resp, err := http.Get(srv.URL + "/mcp")
	if err != nil {
		t.Fatalf("GET /mcp failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET /mcp, got %d", resp.StatusCode)
	}

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"solve_instance","arguments":{"name":"instance1"}}}`
	resp, err = http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /mcp failed: %v", err)
	}
	defer resp.Body.Close()

	var rpc map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		t.Fatalf("Failed to decode MCP response: %v", err)
	}
	data, _ := json.Marshal(rpc["result"])
	if !strings.Contains(string(data), "Total cost of solution") {
		t.Errorf("Expected solve report in MCP result, got %s", data)
	}

	recorded, err := solver.ListRuns(context.Background())
	if err != nil || len(recorded) != 1 {
		t.Errorf("Expected the MCP call to record one run, got %d (%v)", len(recorded), err)
	}
}
