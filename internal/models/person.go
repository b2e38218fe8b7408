package models

import (
	"time"

	"github.com/google/uuid"
)

type ProfileStatus string

const (
	ProfileStatusDraft    ProfileStatus = "DRAFT"
	ProfileStatusPending  ProfileStatus = "PENDING"
	ProfileStatusApproved ProfileStatus = "APPROVED"
	ProfileStatusRejected ProfileStatus = "REJECTED"
)

type Person struct {
	ID         uuid.UUID `json:"id" db:"id"`
	FirstName  string    `json:"first_name" db:"first_name"`
	MiddleName *string   `json:"middle_name,omitempty" db:"middle_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	MaidenName *string   `json:"maiden_name,omitempty" db:"maiden_name"`
	Nicknames  []string  `json:"nicknames" db:"nicknames"`
	Gender     *string   `json:"gender,omitempty" db:"gender"`

	DateOfBirth *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	DateOfDeath *time.Time `json:"date_of_death,omitempty" db:"date_of_death"`
	IsDeceased  bool       `json:"is_deceased" db:"is_deceased"`

	Email   *string `json:"email,omitempty" db:"email"`
	Phone   *string `json:"phone,omitempty" db:"phone"`
	Address *string `json:"address,omitempty" db:"address"`
	City    *string `json:"city,omitempty" db:"city"`
	State   *string `json:"state,omitempty" db:"state"`
	Country *string `json:"country,omitempty" db:"country"`

	Bio        *string `json:"bio,omitempty" db:"bio"`
	Occupation *string `json:"occupation,omitempty" db:"occupation"`

	// Self-referential parent links. The adoptive link participates in the
	// permission check but is never written by the profile editor.
	BiologicalFatherID *uuid.UUID `json:"biological_father_id,omitempty" db:"biological_father_id"`
	BiologicalMotherID *uuid.UUID `json:"biological_mother_id,omitempty" db:"biological_mother_id"`
	AdoptiveParentID   *uuid.UUID `json:"adoptive_parent_id,omitempty" db:"adoptive_parent_id"`

	Generation      int           `json:"generation" db:"generation"`
	ProfileStatus   ProfileStatus `json:"profile_status" db:"profile_status"`
	RejectionReason *string       `json:"rejection_reason,omitempty" db:"rejection_reason"`
	PhotoKey        *string       `json:"photo_key,omitempty" db:"photo_key"`

	CreatedBy *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty" db:"updated_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// PersonRef is the short form embedded in relative listings.
type PersonRef struct {
	ID          uuid.UUID  `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	PhotoKey    *string    `json:"photo_key,omitempty"`
}
