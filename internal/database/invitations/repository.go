// Package invitations provides database operations for sign-up invitation
// codes.
package invitations

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/wkxuan/booknotes/internal/entities"
)

// Repository handles invitation code operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new invitations repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Validate reports whether the code exists. Codes stay valid after use:
// UsedAt is stamped for audit only, not enforced.
func (r *Repository) Validate(code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}
	var invitation entities.Invitation
	err := r.db.Where("code = ?", code).First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MarkUsed records when a code was last redeemed. Best effort; the caller
// does not depend on it.
func (r *Repository) MarkUsed(code string) error {
	now := time.Now()
	return r.db.Model(&entities.Invitation{}).
		Where("code = ?", code).
		Update("used_at", now).Error
}

// Seed inserts the given comma-separated codes if they are not present yet.
func (r *Repository) Seed(codes string) error {
	for _, code := range strings.Split(codes, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		var existing entities.Invitation
		result := r.db.Where("code = ?", code).First(&existing)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if err := r.db.Create(&entities.Invitation{Code: code}).Error; err != nil {
				return fmt.Errorf("failed to seed invitation code: %w", err)
			}
			log.Printf("Seeded invitation code %q", code)
		} else if result.Error != nil {
			return result.Error
		}
	}
	return nil
}
