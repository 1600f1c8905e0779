package service

import (
	"time"

	"github.com/wricardo/mcp-training/vacuumworld/world/model"
	"github.com/wricardo/mcp-training/vacuumworld/world/report"
)

// InstanceInfo provides information about an instance file
type InstanceInfo struct {
	Filename    string `json:"filename"`
	InstanceID  string `json:"instance_id"` // The identifier to use for solving
	Name        string `json:"name"`        // Display name
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Columns     int    `json:"columns"`
	DirtyCells  int    `json:"dirty_cells"`
}

// RunReport is the stored outcome of one solve
type RunReport struct {
	ID           string          `json:"id"`
	InstanceName string          `json:"instance_name"`
	Instance     *model.Instance `json:"instance"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	Summary      *report.Summary `json:"summary"`
}
