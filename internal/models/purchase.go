package models

import (
	"time"
)

// Purchase is a prepaid pack of sessions of a fixed length
type Purchase struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	DurationMinutes   int       `gorm:"index;not null" json:"duration_minutes"`
	NumPeople         int       `gorm:"not null;default:1" json:"num_people"`
	TotalSessions     int       `gorm:"not null" json:"total_sessions"`
	SessionsRemaining int       `gorm:"not null" json:"sessions_remaining"`
	Cost              float64   `gorm:"type:decimal(15,2);not null;default:0" json:"cost"`
	PurchaseDate      time.Time `gorm:"index;not null" json:"purchase_date"`

	// Nullable for rows logged before users existed
	LoggedByUserID *uint   `gorm:"index" json:"logged_by_user_id"`
	PartnerEmail   *string `gorm:"type:varchar(255)" json:"partner_email"`
	PartnerUserID  *uint   `gorm:"index" json:"partner_user_id"`

	// Relationships
	LoggedByUser *User `gorm:"foreignKey:LoggedByUserID;constraint:OnDelete:SET NULL" json:"-"`
	PartnerUser  *User `gorm:"foreignKey:PartnerUserID;constraint:OnDelete:SET NULL" json:"-"`
}

// IsShared reports whether the pack covers two people
func (p *Purchase) IsShared() bool {
	return p.NumPeople > 1
}

func (p *Purchase) Exhausted() bool {
	return p.SessionsRemaining <= 0
}
