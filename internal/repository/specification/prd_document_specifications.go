package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnedBy matches documents whose owner is UserID.
type OwnedBy struct {
	UserID uuid.UUID
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// Anonymous matches documents created without an owner.
type Anonymous struct{}

func (s Anonymous) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id IS NULL")
}

// VisibleTo is the read policy: anonymous documents plus, for a signed-in
// caller, the caller's own.
type VisibleTo struct {
	UserID *uuid.UUID
}

func (s VisibleTo) Apply(db *gorm.DB) *gorm.DB {
	if s.UserID == nil {
		return db.Where("user_id IS NULL")
	}
	return db.Where("(user_id IS NULL OR user_id = ?)", *s.UserID)
}
