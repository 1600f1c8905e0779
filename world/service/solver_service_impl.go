package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/vacuumworld/world/model"
	"github.com/wricardo/mcp-training/vacuumworld/world/report"
	"github.com/wricardo/mcp-training/vacuumworld/world/search"
)

// ErrNotFound is wrapped by every lookup failure of the service's collaborators
var ErrNotFound = errors.New("not found")

// DefaultMaxStates caps the state-space bound (cells times 2^dirt) of a
// model the service will search
const DefaultMaxStates = 1 << 20

// RunListener is called after every finished run
type RunListener func(report *RunReport)

// Option configures the solver service
type Option func(*solverServiceImpl)

// WithLogger sets the logger used for run records
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *solverServiceImpl) {
		s.log = logger
	}
}

// WithMaxStates sets the largest state-space bound the service will search.
// Zero disables the check.
func WithMaxStates(n uint64) Option {
	return func(s *solverServiceImpl) {
		s.maxStates = n
	}
}

// WithRunListener registers a callback invoked after each run is stored
func WithRunListener(l RunListener) Option {
	return func(s *solverServiceImpl) {
		s.listeners = append(s.listeners, l)
	}
}

// solverServiceImpl implements the SolverService interface
type solverServiceImpl struct {
	configs   ConfigManager
	runs      RunStore
	log       logrus.FieldLogger
	listeners []RunListener
	maxStates uint64
}

// NewSolverService creates a new solver service instance
func NewSolverService(configs ConfigManager, runs RunStore, opts ...Option) SolverService {
	s := &solverServiceImpl{
		configs:   configs,
		runs:      runs,
		log:       logrus.StandardLogger(),
		maxStates: DefaultMaxStates,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListInstances returns the available instance files
func (s *solverServiceImpl) ListInstances(ctx context.Context) ([]*InstanceInfo, error) {
	return s.configs.ListInstances()
}

// LoadInstance loads an instance by name
func (s *solverServiceImpl) LoadInstance(ctx context.Context, name string) (*model.Instance, error) {
	return s.configs.LoadInstance(name)
}

// SaveInstance stores an instance under name
func (s *solverServiceImpl) SaveInstance(ctx context.Context, name string, inst *model.Instance) error {
	if inst == nil {
		return fmt.Errorf("instance cannot be nil")
	}
	return s.configs.SaveInstance(name, inst)
}

// Solve solves a named instance; an empty name uses the default instance
func (s *solverServiceImpl) Solve(ctx context.Context, name string) (*RunReport, error) {
	var inst *model.Instance
	if name == "" {
		inst = s.configs.GetDefault()
		if inst == nil {
			return nil, fmt.Errorf("no default instance configured")
		}
		name = inst.Name
	} else {
		var err error
		inst, err = s.configs.LoadInstance(name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				if available, listErr := s.configs.ListInstances(); listErr == nil && len(available) > 0 {
					ids := make([]string, 0, len(available))
					for _, info := range available {
						ids = append(ids, info.InstanceID)
					}
					return nil, fmt.Errorf("instance '%s': %w. Available instances: %v", name, err, ids)
				}
			}
			return nil, fmt.Errorf("failed to load instance %s: %w", name, err)
		}
	}

	return s.run(ctx, name, inst)
}

// SolveInstance solves an ad-hoc instance
func (s *solverServiceImpl) SolveInstance(ctx context.Context, inst *model.Instance) (*RunReport, error) {
	if inst == nil {
		return nil, fmt.Errorf("instance cannot be nil")
	}
	name := inst.Name
	if name == "" {
		name = "adhoc"
	}
	return s.run(ctx, name, inst)
}

// GetRun returns a stored run
func (s *solverServiceImpl) GetRun(ctx context.Context, id string) (*RunReport, error) {
	return s.runs.Get(id)
}

// ListRuns returns stored runs, newest first
func (s *solverServiceImpl) ListRuns(ctx context.Context) ([]*RunReport, error) {
	reports := s.runs.List()
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartedAt.After(reports[j].StartedAt)
	})
	return reports, nil
}

// DeleteRun removes a stored run
func (s *solverServiceImpl) DeleteRun(ctx context.Context, id string) error {
	return s.runs.Delete(id)
}

// run builds the model, searches, and records the report
func (s *solverServiceImpl) run(ctx context.Context, name string, inst *model.Instance) (*RunReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := inst.Build()
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", name, err)
	}
	if bound := m.StateSpaceBound(); s.maxStates > 0 && bound > s.maxStates {
		return nil, fmt.Errorf("instance %s: %w: state space of %d exceeds the limit of %d (%d cells, %d dirty)",
			name, model.ErrInvalidConfiguration, bound, s.maxStates, m.Rows()*m.Columns(), m.Initial().Dirty.Len())
	}

	startedAt := time.Now()
	result := search.NewEngine(m).Search()
	elapsed := time.Since(startedAt)

	summary, err := report.NewSummary(m, result, elapsed)
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", name, err)
	}

	rep := &RunReport{
		ID:           uuid.NewString(),
		InstanceName: name,
		Instance:     inst,
		StartedAt:    startedAt,
		FinishedAt:   startedAt.Add(elapsed),
		Summary:      summary,
	}

	entry := s.log.WithFields(logrus.Fields{
		"run":       rep.ID,
		"instance":  name,
		"solved":    summary.Solved,
		"expanded":  summary.NodesExpanded,
		"generated": summary.NodesGenerated,
		"elapsed":   elapsed,
	})
	if summary.Solved {
		entry.WithField("cost", fmt.Sprintf("%.2f", summary.TotalCost)).Info("solve finished")
	} else {
		entry.Warn("solve finished without a solution")
	}

	if err := s.runs.Add(rep); err != nil {
		s.log.WithError(err).WithField("run", rep.ID).Warn("failed to record run")
	}
	for _, l := range s.listeners {
		l(rep)
	}

	return rep, nil
}
