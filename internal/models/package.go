package models

import "time"

// Package is a catalog template for packs clients can buy. Purchases copy its
// values rather than referencing it.
type Package struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name            string  `gorm:"type:varchar(255);not null" json:"name"`
	DurationMinutes int     `gorm:"index;not null" json:"duration_minutes"`
	NumPeople       int     `gorm:"not null" json:"num_people"`
	TotalSessions   int     `gorm:"not null" json:"total_sessions"`
	PricePerSession float64 `gorm:"type:decimal(15,2);not null" json:"price_per_session"`
	IsActive        bool    `gorm:"not null;default:true" json:"is_active"`
}

// TotalPrice is the price of the whole pack
func (p Package) TotalPrice() float64 {
	return p.PricePerSession * float64(p.TotalSessions)
}
