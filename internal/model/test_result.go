package model

import (
	"time"

	"eyecare_backend/pkg/staircase"
)

// Eye is the eye a test was taken with.
type Eye string

const (
	EyeLeft  Eye = "left"
	EyeRight Eye = "right"
	EyeBoth  Eye = "both"
)

func (e Eye) Valid() bool {
	return e == EyeLeft || e == EyeRight || e == EyeBoth
}

// TestResult is the persisted outcome of one finished staircase run.
// swagger:model TestResult
type TestResult struct {
	BaseModel
	UserID       uint                `gorm:"index;not null" json:"userId"`
	SessionID    string              `gorm:"size:36;uniqueIndex:idx_test_results_session_run" json:"sessionId"`
	Kind         string              `gorm:"size:32;index;not null" json:"kind"`
	Eye          Eye                 `gorm:"size:10;not null" json:"eye"`
	Seed         uint64              `json:"seed,string"`
	Run          int                 `gorm:"uniqueIndex:idx_test_results_session_run" json:"run"`
	FinalLabel   string              `gorm:"size:32;not null" json:"finalLabel"`
	FinalRank    int                 `json:"finalRank"`
	BelowMinimum bool                `json:"belowMinimum"`
	Completed    bool                `json:"completed"`
	Rounds       int                 `json:"rounds"`
	History      []staircase.Attempt `gorm:"serializer:json;type:text" json:"history"`
	EarnedXP     int                 `json:"earnedXp"`
	StartedAt    time.Time           `json:"startedAt"`
	FinishedAt   time.Time           `json:"finishedAt"`
}

func (TestResult) TableName() string {
	return "test_results"
}
