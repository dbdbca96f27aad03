package models

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant is a campus food outlet that accepts orders
type Restaurant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Location  string    `json:"location" db:"location"` // Building or plaza on campus
	IsOpen    bool      `json:"is_open" db:"is_open"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewRestaurant creates a new, closed Restaurant
func NewRestaurant(name, location string) *Restaurant {
	now := time.Now().UTC()
	return &Restaurant{
		ID:        uuid.New(),
		Name:      name,
		Location:  location,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
