package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/wricardo/mcp-training/vacuumworld/world/model"
	"github.com/wricardo/mcp-training/vacuumworld/world/report"
	"github.com/wricardo/mcp-training/vacuumworld/world/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Vacuum World Planner",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Vacuum World Planner - MCP Interface

This is a thin client that proxies all requests to the REST API server.

An agent on a rows x columns grid must clean every dirty cell. It can move
Left, Right, Up, Down (moves into a wall leave it in place) or Suck the cell
it stands on. Each action has a positive cost. The planner runs uniform-cost
search and returns the cheapest action sequence.

AVAILABLE TOOLS:
- list_instances: List stored problem instances
- describe_instance: Show an instance and its grid
- solve_instance: Solve a stored instance by name
- solve_problem: Solve an ad-hoc problem given inline
- get_run: Show the report of a previous run
- list_runs: List previous runs
- planner_instructions: Coordinates, costs and report format in detail`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_instances",
		Description: "List the problem instances stored on the server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListInstances)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_instance",
		Description: "Describe a stored instance: grid size, costs, start, dirt and a rendered grid",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Instance name, e.g. instance1",
				},
			},
			Required: []string{"name"},
		},
	}, c.handleDescribeInstance)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve_instance",
		Description: "Solve a stored instance with uniform-cost search and return the report",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Instance name (default instance1)",
				},
			},
		},
	}, c.handleSolveInstance)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve_problem",
		Description: "Solve an ad-hoc problem given inline",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"rows": map[string]interface{}{
					"type":        "integer",
					"description": "Number of grid rows",
				},
				"columns": map[string]interface{}{
					"type":        "integer",
					"description": "Number of grid columns",
				},
				"initial_row": map[string]interface{}{
					"type":        "integer",
					"description": "Agent start row (1-based)",
				},
				"initial_col": map[string]interface{}{
					"type":        "integer",
					"description": "Agent start column (1-based)",
				},
				"dirty": map[string]interface{}{
					"type":        "array",
					"description": "Dirty cells as [row, col] pairs or {row, col} objects",
					"items":       map[string]interface{}{},
				},
				"action_costs": map[string]interface{}{
					"type":        "object",
					"description": "Cost per action (Left, Right, Up, Down, Suck); defaults apply when omitted",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Optional label for the run",
				},
			},
			Required: []string{"rows", "columns", "initial_row", "initial_col"},
		},
	}, c.handleSolveProblem)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_run",
		Description: "Get the report of a previous run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID returned by a solve tool",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleGetRun)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_runs",
		Description: "List previous runs, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"instance": map[string]interface{}{
					"type":        "string",
					"description": "Only runs of this instance",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs (default 10)",
				},
			},
		},
	}, c.handleListRuns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "planner_instructions",
		Description: "Get detailed instructions for the planner: coordinates, actions, costs and report format",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handlePlannerInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result == nil {
		return nil
	}
	if s, ok := result.(*string); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		*s = string(data)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// Tool handlers

func (c *Client) handleListInstances(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var infos []service.InstanceInfo
	if err := c.apiCall(ctx, "GET", "/api/instances", nil, &infos); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatInstanceList(infos)), nil
}

func (c *Client) handleDescribeInstance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	name := strings.TrimSpace(cast.ToString(args["name"]))
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	path := "/api/instances/" + url.PathEscape(name)

	var inst model.Instance
	if err := c.apiCall(ctx, "GET", path, nil, &inst); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var grid string
	if err := c.apiCall(ctx, "GET", path+"/grid", nil, &grid); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatInstance(name, &inst, grid)), nil
}

func (c *Client) handleSolveInstance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	name := strings.TrimSpace(cast.ToString(args["name"]))
	if name == "" {
		name = "instance1"
	}

	var run service.RunReport
	if err := c.apiCall(ctx, "POST", "/api/instances/"+url.PathEscape(name)+"/solve", nil, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRun(&run)), nil
}

func (c *Client) handleSolveProblem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inst, err := instanceFromArgs(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var run service.RunReport
	if err := c.apiCall(ctx, "POST", "/api/solve", inst, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRun(&run)), nil
}

func (c *Client) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id := strings.TrimSpace(cast.ToString(args["run_id"]))
	if id == "" {
		return mcp.NewToolResultError("run_id is required"), nil
	}

	var run service.RunReport
	if err := c.apiCall(ctx, "GET", "/api/runs/"+url.PathEscape(id), nil, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRun(&run)), nil
}

func (c *Client) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	limit := cast.ToInt(args["limit"])
	if limit <= 0 {
		limit = 10
	}
	query := url.Values{}
	query.Set("limit", cast.ToString(limit))
	if instance := strings.TrimSpace(cast.ToString(args["instance"])); instance != "" {
		query.Set("instance", instance)
	}

	var response struct {
		Count int                  `json:"count"`
		Total int                  `json:"total"`
		Runs  []*service.RunReport `json:"runs"`
	}
	if err := c.apiCall(ctx, "GET", "/api/runs?"+query.Encode(), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunList(response.Runs, response.Total)), nil
}

func (c *Client) handlePlannerInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `VACUUM WORLD PLANNER

GRID
- Rows are numbered 1..rows from the top, columns 1..columns from the left.
- Positions are written (row, col).

ACTIONS
- Left, Right, Up, Down move one cell. A move into the wall leaves the
  agent where it is but still costs the action's price.
- Suck cleans the agent's cell. On a clean cell it does nothing but still
  costs its price.
- Default costs: Left 1.0, Right 0.9, Up 0.8, Down 0.7, Suck 0.6.

SEARCH
- Uniform-cost graph search: the cheapest unexpanded node is expanded
  next. Ties go to the node generated first.
- A state is (agent position, set of dirty cells). Each state is expanded
  at most once.
- Every expansion generates one successor per action.

REPORT
- First 5 expanded search nodes (position and path)
- Total number of nodes expanded and generated
- CPU execution time
- Sequence of moves, total number of moves and total cost, or
  "Solution wasn't found."

TIPS
- Use describe_instance to see the grid before solving.
- solve_problem takes dirty as [[row, col], ...] and optional action_costs.
- Runs are kept by the server; fetch them again with get_run.`

	return mcp.NewToolResultText(instructions), nil
}

// instanceFromArgs builds an instance from loosely typed tool arguments
func instanceFromArgs(args map[string]interface{}) (*model.Instance, error) {
	rows, err := cast.ToIntE(args["rows"])
	if err != nil {
		return nil, fmt.Errorf("rows: %v", err)
	}
	columns, err := cast.ToIntE(args["columns"])
	if err != nil {
		return nil, fmt.Errorf("columns: %v", err)
	}
	row, err := cast.ToIntE(args["initial_row"])
	if err != nil {
		return nil, fmt.Errorf("initial_row: %v", err)
	}
	col, err := cast.ToIntE(args["initial_col"])
	if err != nil {
		return nil, fmt.Errorf("initial_col: %v", err)
	}

	inst := &model.Instance{
		Name:    cast.ToString(args["name"]),
		Rows:    rows,
		Columns: columns,
		Initial: model.Position{Row: row, Col: col},
		Dirty:   []model.Position{},
	}

	if raw, ok := args["dirty"]; ok && raw != nil {
		cells, err := cast.ToSliceE(raw)
		if err != nil {
			return nil, fmt.Errorf("dirty: %v", err)
		}
		for i, cell := range cells {
			p, err := positionFromArg(cell)
			if err != nil {
				return nil, fmt.Errorf("dirty[%d]: %v", i, err)
			}
			inst.Dirty = append(inst.Dirty, p)
		}
	}

	if raw, ok := args["action_costs"]; ok && raw != nil {
		costs, err := cast.ToStringMapE(raw)
		if err != nil {
			return nil, fmt.Errorf("action_costs: %v", err)
		}
		inst.ActionCosts = make(map[model.Action]float64, len(costs))
		for k, v := range costs {
			a, err := model.ParseAction(k)
			if err != nil {
				return nil, fmt.Errorf("action_costs: %v", err)
			}
			cost, err := cast.ToFloat64E(v)
			if err != nil {
				return nil, fmt.Errorf("action_costs[%s]: %v", k, err)
			}
			inst.ActionCosts[a] = cost
		}
	}

	return inst, nil
}

// positionFromArg accepts [row, col] or {"row": r, "col": c}
func positionFromArg(v interface{}) (model.Position, error) {
	if m, err := cast.ToStringMapE(v); err == nil {
		row, err := cast.ToIntE(m["row"])
		if err != nil {
			return model.Position{}, fmt.Errorf("row: %v", err)
		}
		col, err := cast.ToIntE(m["col"])
		if err != nil {
			return model.Position{}, fmt.Errorf("col: %v", err)
		}
		return model.Position{Row: row, Col: col}, nil
	}

	pair, err := cast.ToSliceE(v)
	if err != nil || len(pair) != 2 {
		return model.Position{}, fmt.Errorf("expected [row, col], got %v", v)
	}
	row, err := cast.ToIntE(pair[0])
	if err != nil {
		return model.Position{}, fmt.Errorf("row: %v", err)
	}
	col, err := cast.ToIntE(pair[1])
	if err != nil {
		return model.Position{}, fmt.Errorf("col: %v", err)
	}
	return model.Position{Row: row, Col: col}, nil
}

// Formatting helpers

func formatInstanceList(infos []service.InstanceInfo) string {
	if len(infos) == 0 {
		return "No instances found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Instances (%d):\n\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(&b, "- %s: %dx%d grid, %d dirty cells", info.InstanceID, info.Rows, info.Columns, info.DirtyCells)
		if info.Description != "" {
			fmt.Fprintf(&b, " (%s)", info.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatInstance(name string, inst *model.Instance, grid string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Instance: %s\n", name)
	if inst.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", inst.Description)
	}
	fmt.Fprintf(&b, "Grid: %d rows x %d columns\n", inst.Rows, inst.Columns)
	fmt.Fprintf(&b, "Agent starts at: %s\n", inst.Initial)

	dirty := make([]string, len(inst.Dirty))
	for i, p := range inst.Dirty {
		dirty[i] = p.String()
	}
	fmt.Fprintf(&b, "Dirty cells (%d): %s\n", len(inst.Dirty), strings.Join(dirty, " "))

	cfg := inst.Config()
	actions := cfg.Actions
	if len(actions) == 0 {
		actions = model.CanonicalActions
	}
	costs := make([]string, len(actions))
	for i, a := range actions {
		costs[i] = fmt.Sprintf("%s=%.2f", a, cfg.ActionCosts[a])
	}
	fmt.Fprintf(&b, "Action costs: %s\n", strings.Join(costs, ", "))

	b.WriteString("\nLegend: A agent, D dirt, @ agent on dirt\n")
	b.WriteString(grid)
	return b.String()
}

func formatRun(run *service.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s\n", run.ID)
	fmt.Fprintf(&b, "Instance: %s\n", run.InstanceName)
	if !run.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Started: %s\n", run.StartedAt.Format(time.RFC3339))
	}
	b.WriteString("\n")

	if run.Summary == nil {
		b.WriteString("No summary available.\n")
		return b.String()
	}
	if run.Summary.Grid != "" {
		b.WriteString(run.Summary.Grid)
		b.WriteString("\n")
	}
	b.WriteString(run.Summary.String())
	return b.String()
}

func formatRunList(runs []*service.RunReport, total int) string {
	if len(runs) == 0 {
		return "No runs yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Runs (%d of %d):\n\n", len(runs), total)
	for _, run := range runs {
		status := formatSummaryLine(run.Summary)
		fmt.Fprintf(&b, "- %s [%s] %s (%s)\n", run.ID, run.InstanceName, status, run.StartedAt.Format("15:04:05"))
	}
	return b.String()
}

// formatSummaryLine is the one-line outcome of a run
func formatSummaryLine(s *report.Summary) string {
	if s == nil || !s.Solved {
		return "Solution wasn't found."
	}
	return fmt.Sprintf("%s (cost %.2f)", report.FormatPath(s.Path), s.TotalCost)
}
