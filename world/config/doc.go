// Package config provides instance management for the vacuum world planner.
//
// The config package handles:
//   - Loading problem instances from JSON or YAML files
//   - Instance validation before anything is cached
//   - Default instance management
//   - Instance discovery and listing
//
// Instance Format:
//
// Instances are stored in the configs directory as <name>.json, <name>.yaml
// or <name>.yml. Each instance defines:
//   - Grid dimensions (rows, columns)
//   - The declared actions and their costs (optional, classic table by default)
//   - The agent's initial position and the dirty cells, 1-indexed
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	inst, err := manager.LoadInstance("instance1")
//	instances, err := manager.ListInstances()
package config
