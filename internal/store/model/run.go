package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run is the registry record of one pipeline execution.
type Run struct {
	ID          uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FinishedAt  *time.Time
	Pipeline    string `gorm:"not null;index:runs_pipeline_idx"`
	State       string `gorm:"not null;type:VARCHAR(32);index:runs_state_idx"`
	ArtifactDir string
	Seed        int64
	TrainFile   string
	TestFile    string
	DriftReport string
	Message     string
}

type RunList []Run

func (r Run) String() string {
	val, _ := json.Marshal(r)
	return string(val)
}
