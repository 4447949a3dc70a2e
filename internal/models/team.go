package models

import "time"

// Team represents a class/cohort of students for a given year.
type Team struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Year      int       `db:"year" json:"year"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeamFilter defines filter criteria for listing teams.
type TeamFilter struct {
	Year      int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TeamMember is a roster row joining the member account info.
type TeamMember struct {
	TeamID             string `db:"team_id" json:"team_id"`
	AccountID          string `db:"account_id" json:"account_id"`
	RegistrationNumber string `db:"registration_number" json:"registration_number"`
	FullName           string `db:"full_name" json:"full_name"`
}
