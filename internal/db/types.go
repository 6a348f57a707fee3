package db

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusNoChange  = "no_change"
	StatusFailed    = "failed"
)

// Run is one recorded archive operation.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Archive     string     `json:"archive"`
	Status      string     `json:"status"`
	Changed     bool       `json:"changed"`
	ModelHash   string     `json:"model_hash,omitempty"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
