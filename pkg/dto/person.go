package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/your-org/familytree/internal/models"
)

// PersonRef is the compact form used in relative listings and
// autocomplete responses.
type PersonRef struct {
	ID          uuid.UUID  `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	PhotoKey    *string    `json:"photo_key,omitempty"`
}

type CreatePersonRequest struct {
	FirstName  string   `json:"first_name" binding:"required"`
	MiddleName *string  `json:"middle_name"`
	LastName   string   `json:"last_name" binding:"required"`
	MaidenName *string  `json:"maiden_name"`
	Nicknames  []string `json:"nicknames"`
	Gender     *string  `json:"gender"`

	DateOfBirth *time.Time `json:"date_of_birth"`
	DateOfDeath *time.Time `json:"date_of_death"`
	IsDeceased  bool       `json:"is_deceased"`

	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Country *string `json:"country"`

	Bio        *string `json:"bio"`
	Occupation *string `json:"occupation"`

	BiologicalFatherID *uuid.UUID `json:"biological_father_id"`
	BiologicalMotherID *uuid.UUID `json:"biological_mother_id"`
}

// UpdatePersonRequest carries only the fields present in the request
// body; nil pointers leave the stored value unchanged.
type UpdatePersonRequest struct {
	FirstName  *string   `json:"first_name"`
	MiddleName *string   `json:"middle_name"`
	LastName   *string   `json:"last_name"`
	MaidenName *string   `json:"maiden_name"`
	Nicknames  *[]string `json:"nicknames"`
	Gender     *string   `json:"gender"`

	DateOfBirth *time.Time `json:"date_of_birth"`
	DateOfDeath *time.Time `json:"date_of_death"`
	IsDeceased  *bool      `json:"is_deceased"`

	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Country *string `json:"country"`

	Bio        *string `json:"bio"`
	Occupation *string `json:"occupation"`

	BiologicalFatherID *uuid.UUID `json:"biological_father_id"`
	BiologicalMotherID *uuid.UUID `json:"biological_mother_id"`
}

type SpouseInput struct {
	SpouseID     uuid.UUID             `json:"spouse_id" binding:"required"`
	MarriageDate *time.Time            `json:"marriage_date"`
	Status       models.MarriageStatus `json:"status"`
}

// ProfileRequest is the self-service editor's create-or-update payload.
type ProfileRequest struct {
	CreatePersonRequest
	Spouses []SpouseInput        `json:"spouses"`
	Status  models.ProfileStatus `json:"status"`
}

type SpouseResponse struct {
	Person       PersonRef             `json:"person"`
	Status       models.MarriageStatus `json:"status"`
	MarriageDate *time.Time            `json:"marriage_date,omitempty"`
}

// PersonDetail is a person plus their resolved one-hop relatives.
type PersonDetail struct {
	models.Person
	Father   *PersonRef       `json:"father,omitempty"`
	Mother   *PersonRef       `json:"mother,omitempty"`
	Children []PersonRef      `json:"children"`
	Spouses  []SpouseResponse `json:"spouses"`
}

type CreateMarriageRequest struct {
	Spouse1ID     uuid.UUID             `json:"spouse1_id" binding:"required"`
	Spouse2ID     uuid.UUID             `json:"spouse2_id" binding:"required"`
	MarriageDate  *time.Time            `json:"marriage_date"`
	MarriagePlace *string               `json:"marriage_place"`
	Status        models.MarriageStatus `json:"status"`
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

type GenerationSuggestion struct {
	SuggestedGeneration int `json:"suggestedGeneration"`
}

type RejectProfileRequest struct {
	Reason string `json:"reason" binding:"required"`
}
