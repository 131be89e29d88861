package db

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a mapping session record
type Session struct {
	ID           uuid.UUID  `json:"id"`
	InputFormat  string     `json:"input_format"`
	OutputFormat string     `json:"output_format"`
	SchemaName   string     `json:"schema_name"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Session status constants
const (
	StatusRunning    = "running"
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
	StatusFailed     = "failed"
)

// Step constants name the stages a session reports progress for
const (
	StepLoad          = "load"
	StepTransform     = "transform"
	StepMissingFields = "missing_fields"
	StepResolve       = "resolve"
	StepPersist       = "persist"
)

// Category constants group steps in progress events
const (
	CategoryInput       = "input"
	CategoryMapping     = "mapping"
	CategoryConformance = "conformance"
	CategoryStorage     = "storage"
)
