// Package service provides the business logic layer for the vacuum world planner.
//
// The service package coordinates:
//   - Instance lookup through a ConfigManager
//   - Model construction and uniform-cost search
//   - Execution-time measurement and summary building
//   - Recording finished runs in a RunStore
//
// Architecture:
//
// SolverService is the entry point used by the REST API, the MCP tools and
// the CLI. It depends only on the ConfigManager and RunStore interfaces, so
// storage can be swapped without touching callers.
//
// Usage:
//
//	configs, _ := config.NewManager("configs")
//	svc := service.NewSolverService(configs, runs.NewStore())
//
//	report, err := svc.Solve(ctx, "instance1")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Print(report.Summary)
//
// Thread Safety:
//
// Every solve builds its own model and engine. The service holds no search
// state, so concurrent calls are safe as long as the ConfigManager and
// RunStore are.
package service
