package services

import (
	"gorm.io/gorm"

	"gym_tracker_echo/internal/models"
)

const (
	// SoloLabel marks single-person packs in partner reports
	SoloLabel = "Solo"
	// UnknownPartnerLabel stands in when the other party cannot be resolved
	UnknownPartnerLabel = "Unknown partner"
)

// VisiblePurchases restricts a purchases query to packs the user owns or shares.
// userID 0 leaves the query unscoped.
func VisiblePurchases(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if userID == 0 {
			return db
		}
		return db.Where("(purchases.logged_by_user_id = ? OR purchases.partner_user_id = ?)", userID, userID)
	}
}

// VisibleSessions restricts a sessions query to sessions the user created, was
// named partner on, or that draw from a pack visible to the user.
func VisibleSessions(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if userID == 0 {
			return db
		}
		packs := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Purchase{}).
			Select("purchases.id").
			Scopes(VisiblePurchases(userID))
		return db.Where(
			"(sessions.created_by_user_id = ? OR sessions.partner_user_id = ? OR sessions.purchase_id IN (?))",
			userID, userID, packs,
		)
	}
}

// OwnedBy restricts a purchases query to packs the user logged
func OwnedBy(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if userID == 0 {
			return db
		}
		return db.Where("purchases.logged_by_user_id = ?", userID)
	}
}

// PurchaseView is a Purchase as seen by one viewer
type PurchaseView struct {
	models.Purchase
	IsOwner     bool   `json:"is_owner"`
	PartnerName string `json:"partner_name,omitempty"`
}

// SessionView is a Session as seen by one viewer
type SessionView struct {
	models.Session
	IsOwner           bool   `json:"is_owner"`
	PartnerName       string `json:"partner_name,omitempty"`
	PurchaseExhausted bool   `json:"purchase_exhausted"`
}

// AnnotatePurchase computes ownership and the other party's name for viewerID.
// Partners see the pack but not what the owner paid for it; an unscoped viewer
// (viewerID 0) sees every cost. The purchase must have LoggedByUser and
// PartnerUser loaded.
func AnnotatePurchase(p models.Purchase, viewerID uint) PurchaseView {
	view := PurchaseView{Purchase: p}
	view.IsOwner = ownedBy(p.LoggedByUserID, viewerID)
	if !view.IsOwner && viewerID != 0 {
		view.Cost = 0
	}
	if !p.IsShared() {
		return view
	}

	switch {
	case view.IsOwner:
		view.PartnerName = packPartnerName(p)
	case matches(p.PartnerUserID, viewerID):
		view.PartnerName = nameOr(p.LoggedByUser, UnknownPartnerLabel)
	default:
		view.PartnerName = UnknownPartnerLabel
	}
	if view.PartnerName == "" {
		view.PartnerName = UnknownPartnerLabel
	}
	return view
}

// AnnotateSession computes ownership, the other party's name and the pack
// exhaustion flag for viewerID. The session must have Purchase (with its users),
// CreatedByUser and PartnerUser loaded.
func AnnotateSession(s models.Session, viewerID uint) SessionView {
	view := SessionView{Session: s}
	view.IsOwner = ownedBy(s.CreatedByUserID, viewerID)
	if s.Purchase != nil {
		view.PurchaseExhausted = s.Purchase.Exhausted()
	}
	view.PartnerName = SessionPartnerName(s, viewerID)
	if view.PartnerName == SoloLabel {
		view.PartnerName = ""
	}
	return view
}

// SessionPartnerName resolves the other party of a session from viewerID's side:
// the session-level partner first, then the pack owner or pack partner, then a
// placeholder. Single-person packs resolve to SoloLabel.
func SessionPartnerName(s models.Session, viewerID uint) string {
	if s.Purchase == nil || !s.Purchase.IsShared() {
		return SoloLabel
	}
	p := s.Purchase

	if s.PartnerUserID != nil {
		if !matches(s.PartnerUserID, viewerID) {
			return nameOr(s.PartnerUser, UnknownPartnerLabel)
		}
		// The viewer is the named partner, so the other party is whoever logged it
		if s.CreatedByUser != nil && !matches(s.CreatedByUserID, viewerID) {
			return s.CreatedByUser.DisplayName()
		}
	}

	switch {
	case ownedBy(p.LoggedByUserID, viewerID):
		if name := packPartnerName(*p); name != "" {
			return name
		}
	case matches(p.PartnerUserID, viewerID):
		if name := nameOr(p.LoggedByUser, ""); name != "" {
			return name
		}
	}
	return UnknownPartnerLabel
}

func packPartnerName(p models.Purchase) string {
	if p.PartnerUser != nil {
		return p.PartnerUser.DisplayName()
	}
	if p.PartnerEmail != nil {
		return *p.PartnerEmail
	}
	return ""
}

func nameOr(u *models.User, fallback string) string {
	if name := u.DisplayName(); name != "" {
		return name
	}
	return fallback
}

func matches(id *uint, userID uint) bool {
	return id != nil && userID != 0 && *id == userID
}

// ownedBy treats ownerless legacy rows as belonging to the unscoped caller
func ownedBy(owner *uint, userID uint) bool {
	if owner == nil {
		return userID == 0
	}
	return *owner == userID
}

// loadPurchaseParties preloads the users needed to annotate purchases
func loadPurchaseParties(db *gorm.DB) *gorm.DB {
	return db.Preload("LoggedByUser").Preload("PartnerUser")
}

// loadSessionParties preloads the users and pack needed to annotate sessions
func loadSessionParties(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Purchase").
		Preload("Purchase.LoggedByUser").
		Preload("Purchase.PartnerUser").
		Preload("CreatedByUser").
		Preload("PartnerUser")
}
