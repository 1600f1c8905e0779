package model

// Instance is a named problem as stored in a configuration file
type Instance struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Rows        int                `json:"rows" yaml:"rows"`
	Columns     int                `json:"columns" yaml:"columns"`
	Actions     []Action           `json:"actions,omitempty" yaml:"actions,omitempty"`
	ActionCosts map[Action]float64 `json:"action_costs,omitempty" yaml:"action_costs,omitempty"`
	Initial     Position           `json:"initial_position" yaml:"initial_position"`
	Dirty       []Position         `json:"dirty" yaml:"dirty"`
}

// Config returns the instance's grid and cost configuration.
// A missing cost table falls back to DefaultActionCosts.
func (i *Instance) Config() Config {
	costs := i.ActionCosts
	if len(costs) == 0 {
		costs = DefaultActionCosts()
	}
	return Config{
		Rows:        i.Rows,
		Columns:     i.Columns,
		Actions:     i.Actions,
		ActionCosts: costs,
	}
}

// Validate checks the instance without building a model
func (i *Instance) Validate() error {
	cfg := i.Config()
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	return validatePlacement(cfg, i.Initial, i.Dirty)
}

// Build constructs the model described by the instance
func (i *Instance) Build() (*Model, error) {
	return NewModel(i.Config(), i.Initial, i.Dirty)
}
