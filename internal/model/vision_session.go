package model

import (
	"time"

	"eyecare_backend/pkg/staircase"
)

// VisionSession is the live snapshot of a test in progress. It lives in the
// session store (redis or memory), never in the relational database.
type VisionSession struct {
	ID        string          `json:"id"`
	UserID    uint            `json:"userId"`
	Kind      string          `json:"kind"`
	Eye       Eye             `json:"eye"`
	State     staircase.State `json:"state"`
	StartedAt *time.Time      `json:"startedAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
