package service

import (
	"time"

	"gitlab.com/yelinaung/caja-gym/internal/models"
)

// DefaultEditWindow is how long a creator may edit their own movement.
const DefaultEditWindow = 24 * time.Hour

// EditPolicy decides whether user may edit a movement at time now.
type EditPolicy interface {
	CanEdit(mv *models.Movement, user *models.User, now time.Time) bool
}

// WindowPolicy lets admins edit anything and creators edit their own
// movements for Window after creation.
type WindowPolicy struct {
	Window time.Duration
}

// CanEdit implements EditPolicy.
func (p WindowPolicy) CanEdit(mv *models.Movement, user *models.User, now time.Time) bool {
	if mv == nil || user == nil || !user.Active {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	if mv.UserID != user.ID {
		return false
	}

	window := p.Window
	if window <= 0 {
		window = DefaultEditWindow
	}
	return now.Sub(mv.CreatedAt) <= window
}
