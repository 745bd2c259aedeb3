// Package books provides database operations for the two-record book model:
// the basic row (title, rating, notes) always exists, the extended row
// (author, tags, external id, cover) only when there is something to put in
// it. All multi-statement writes run inside a single transaction.
package books

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/wkxuan/booknotes/internal/entities"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrBookNotFound  = errors.New("book not found")
)

// Sort keys accepted on list views, mapped to safe column references.
// Caller input never reaches query text directly.
var sortColumns = map[string]string{
	"date":   "created_at",
	"rating": "rating",
	"title":  "title",
}

const defaultSortKey = "date"

// CoverResolver resolves a cover image URL for an external book id.
// Implementations degrade to "" on any failure; they never block a save.
type CoverResolver interface {
	Resolve(ctx context.Context, scheme, number string) string
}

// BookInput is a user-supplied book payload. Call Normalize before use.
type BookInput struct {
	Title    string
	Rating   int
	Notes    string
	Author   string
	IDScheme string
	IDNumber string
	Tags     string
	CoverURL string // explicit cover; skips the upstream lookup when set
}

// Normalize trims identifier-like fields. Blank optional strings are
// canonicalized to NULL at write time.
func (in *BookInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.IDScheme = strings.TrimSpace(in.IDScheme)
	in.IDNumber = strings.TrimSpace(in.IDNumber)
	in.Tags = strings.TrimSpace(in.Tags)
	in.CoverURL = strings.TrimSpace(in.CoverURL)
}

func (in *BookInput) hasExtraInfo() bool {
	return in.Author != "" || in.Tags != "" || in.IDScheme != "" || in.IDNumber != ""
}

// Repository handles all book database operations.
type Repository struct {
	db       *gorm.DB
	covers   CoverResolver
	pageSize int
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB, covers CoverResolver, pageSize int) *Repository {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Repository{db: db, covers: covers, pageSize: pageSize}
}

// Create inserts the basic row and, when any optional field is set, the
// extended row in the same transaction. The cover is resolved before the
// transaction opens so a slow upstream never holds it.
func (r *Repository) Create(ctx context.Context, userID uint, in BookInput) (*entities.Book, error) {
	in.Normalize()
	if in.Title == "" {
		return nil, ErrTitleRequired
	}

	cover := in.CoverURL
	if in.hasExtraInfo() && cover == "" && in.IDScheme != "" && in.IDNumber != "" {
		cover = r.resolveCover(ctx, in.IDScheme, in.IDNumber)
	}

	book := &entities.Book{
		UserID: userID,
		Title:  in.Title,
		Rating: in.Rating,
		Notes:  in.Notes,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(book).Error; err != nil {
			return err
		}
		if !in.hasExtraInfo() {
			return nil
		}
		info := infoFromInput(book.ID, in, cover)
		if err := tx.Create(info).Error; err != nil {
			return err
		}
		book.Info = info
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// Update edits the basic row and transitions the extended row as needed:
// inserted when optional fields appear for the first time, updated in place
// otherwise. The cover is re-resolved only when the external id pair changed
// and no explicit cover URL was supplied.
func (r *Repository) Update(ctx context.Context, userID, bookID uint, in BookInput) (*entities.Book, error) {
	in.Normalize()
	if in.Title == "" {
		return nil, ErrTitleRequired
	}

	// Ownership check first so cover probes never run for foreign books.
	existing, err := r.GetByID(userID, bookID)
	if err != nil {
		return nil, err
	}

	cover := in.CoverURL
	if in.hasExtraInfo() && cover == "" && in.IDScheme != "" && in.IDNumber != "" {
		if externalIDChanged(existing.Info, in) {
			cover = r.resolveCover(ctx, in.IDScheme, in.IDNumber)
		} else if existing.Info != nil && existing.Info.CoverURL != nil {
			cover = *existing.Info.CoverURL
		}
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Book{}).
			Where("id = ? AND user_id = ?", bookID, userID).
			Updates(map[string]any{
				"title":  in.Title,
				"rating": in.Rating,
				"notes":  in.Notes,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Deleted underneath us, or a forged id
			return ErrBookNotFound
		}

		if !in.hasExtraInfo() {
			return nil
		}

		info := infoFromInput(bookID, in, cover)
		if existing.Info == nil {
			// First transition from basic-only to basic+extended
			return tx.Create(info).Error
		}
		return tx.Model(&entities.BookInfo{}).
			Where("id = ?", bookID).
			Updates(map[string]any{
				"author":    info.Author,
				"tags":      info.Tags,
				"id_scheme": info.IDScheme,
				"id_number": info.IDNumber,
				"cover_url": info.CoverURL,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(userID, bookID)
}

// Delete removes the extended row (tolerating its absence) and the basic row
// in one transaction. A zero-row basic delete rolls everything back.
func (r *Repository) Delete(ctx context.Context, userID, bookID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", bookID).Delete(&entities.BookInfo{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND user_id = ?", bookID, userID).Delete(&entities.Book{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBookNotFound
		}
		return nil
	})
}

// GetByID retrieves a single book with its extended record, scoped to the
// owning user. Foreign or missing ids yield ErrBookNotFound.
func (r *Repository) GetByID(userID, bookID uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Info").
		Where("id = ? AND user_id = ?", bookID, userID).
		First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// List returns one page of the user's books plus the total count. The sort
// key is whitelisted; unknown keys fall back to date. Pages start at 1.
func (r *Repository) List(userID uint, sortKey string, page int) ([]entities.Book, int64, error) {
	column, ok := sortColumns[sortKey]
	if !ok {
		column = sortColumns[defaultSortKey]
	}
	if page < 1 {
		page = 1
	}

	var total int64
	if err := r.db.Model(&entities.Book{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []entities.Book
	err := r.db.Preload("Info").
		Where("user_id = ?", userID).
		Order(column + " DESC").
		Limit(r.pageSize).
		Offset((page - 1) * r.pageSize).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// PageSize reports the configured page size for list views.
func (r *Repository) PageSize() int {
	return r.pageSize
}

func (r *Repository) resolveCover(ctx context.Context, scheme, number string) string {
	if r.covers == nil {
		return ""
	}
	return r.covers.Resolve(ctx, scheme, number)
}

func externalIDChanged(stored *entities.BookInfo, in BookInput) bool {
	if stored == nil {
		return true
	}
	return derefOrEmpty(stored.IDScheme) != in.IDScheme ||
		derefOrEmpty(stored.IDNumber) != in.IDNumber
}

func infoFromInput(bookID uint, in BookInput, cover string) *entities.BookInfo {
	return &entities.BookInfo{
		ID:       bookID,
		Author:   nullable(in.Author),
		Tags:     nullable(in.Tags),
		IDScheme: nullable(in.IDScheme),
		IDNumber: nullable(in.IDNumber),
		CoverURL: nullable(cover),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
