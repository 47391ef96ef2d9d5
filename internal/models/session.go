package models

import (
	"time"
)

// Session is one training appointment drawn from a Purchase
type Session struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	PurchaseID      uint      `gorm:"index;not null" json:"purchase_id"`
	SessionDate     time.Time `gorm:"index;not null" json:"session_date"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	Trainer         string    `gorm:"type:varchar(255);index;not null" json:"trainer"`

	CreatedByUserID *uint `gorm:"index" json:"created_by_user_id"`
	// Per-session override of the pack partner
	PartnerUserID *uint `gorm:"index" json:"partner_user_id"`

	// Relationships
	Purchase      *Purchase `gorm:"foreignKey:PurchaseID" json:"-"`
	CreatedByUser *User     `gorm:"foreignKey:CreatedByUserID;constraint:OnDelete:SET NULL" json:"-"`
	PartnerUser   *User     `gorm:"foreignKey:PartnerUserID;constraint:OnDelete:SET NULL" json:"-"`
}
