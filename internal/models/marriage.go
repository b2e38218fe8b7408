package models

import (
	"time"

	"github.com/google/uuid"
)

type MarriageStatus string

const (
	MarriageStatusMarried  MarriageStatus = "MARRIED"
	MarriageStatusDivorced MarriageStatus = "DIVORCED"
	MarriageStatusWidowed  MarriageStatus = "WIDOWED"
)

// Marriage links two persons. Undirected in meaning but stored as an
// ordered pair, so lookups must check both spouse slots.
type Marriage struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	Spouse1ID     uuid.UUID      `json:"spouse1_id" db:"spouse1_id"`
	Spouse2ID     uuid.UUID      `json:"spouse2_id" db:"spouse2_id"`
	Status        MarriageStatus `json:"status" db:"status"`
	MarriageDate  *time.Time     `json:"marriage_date,omitempty" db:"marriage_date"`
	MarriagePlace *string        `json:"marriage_place,omitempty" db:"marriage_place"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}
