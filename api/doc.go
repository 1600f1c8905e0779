// Package api provides the HTTP REST API for the vacuum world planner.
//
// Endpoints:
//
// Instances:
//   - GET /api/instances - List instance files
//   - POST /api/instances - Save an instance (body is the instance format)
//   - GET /api/instances/{name} - Get an instance
//   - GET /api/instances/{name}/grid - Text rendering of the initial grid
//   - POST /api/instances/{name}/solve - Solve a stored instance
//
// Ad-hoc:
//   - POST /api/solve - Solve the instance given in the body
//
// Runs:
//   - GET /api/runs - List finished runs, newest first (?instance=, ?limit=)
//   - GET /api/runs/{id} - Get a run report
//   - DELETE /api/runs/{id} - Forget a run
//
// Misc:
//   - GET /api/schema - JSON schema of the instance format
//   - GET /ws?instance=<name> - WebSocket feed of finished runs
//   - GET /health
//
// Instance format:
//
//	{
//	  "name": "instance1",
//	  "rows": 4,
//	  "columns": 5,
//	  "action_costs": {"Left": 1.0, "Right": 0.9, "Up": 0.8, "Down": 0.7, "Suck": 0.6},
//	  "initial_position": {"row": 2, "col": 2},
//	  "dirty": [{"row": 1, "col": 2}]
//	}
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status code: 404 for unknown
// instances or runs, 400 for invalid instances, 500 otherwise.
//
//	{"error": "error message"}
package api
