package service

import (
	"context"

	"github.com/wricardo/mcp-training/vacuumworld/world/model"
)

// SolverService defines all planner operations
type SolverService interface {
	// Instances
	ListInstances(ctx context.Context) ([]*InstanceInfo, error)
	LoadInstance(ctx context.Context, name string) (*model.Instance, error)
	SaveInstance(ctx context.Context, name string, inst *model.Instance) error

	// Solving
	Solve(ctx context.Context, name string) (*RunReport, error)
	SolveInstance(ctx context.Context, inst *model.Instance) (*RunReport, error)

	// Runs
	GetRun(ctx context.Context, id string) (*RunReport, error)
	ListRuns(ctx context.Context) ([]*RunReport, error)
	DeleteRun(ctx context.Context, id string) error
}

// ConfigManager handles instance loading
type ConfigManager interface {
	LoadInstance(name string) (*model.Instance, error)
	ListInstances() ([]*InstanceInfo, error)
	GetDefault() *model.Instance
	SaveInstance(name string, inst *model.Instance) error
}

// RunStore keeps finished runs
type RunStore interface {
	Add(report *RunReport) error
	Get(id string) (*RunReport, error)
	List() []*RunReport
	Delete(id string) error
}
