// Package mcp exposes the vacuum world planner as Model Context Protocol tools.
//
// The Client is a thin proxy: every tool call becomes a REST request to the
// api package's server, and the JSON answer is rendered as text for the
// agent. Loosely typed tool arguments (numbers sent as strings, pairs sent as
// objects) are coerced with spf13/cast before they reach the API.
//
// Tools:
//   - list_instances: stored problem instances
//   - describe_instance: instance details and its rendered grid
//   - solve_instance: solve a stored instance
//   - solve_problem: solve an inline problem (rows, columns, start, dirt, costs)
//   - get_run, list_runs: previous run reports
//   - planner_instructions: rules, costs and report format
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp handled with GetMCPServer().HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
