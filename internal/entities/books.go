package entities

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:100" json:"username"`
	PasswordHash string    `gorm:"size:100" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Invitation gates sign-up. Codes are existence-checked only; UsedAt is
// recorded for audit but reuse is not prevented.
type Invitation struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	Code   string     `gorm:"uniqueIndex;size:32" json:"code"`
	UsedAt *time.Time `json:"used_at,omitempty"`
}

// Book holds the always-present fields of a record. Optional enrichment
// fields live in BookInfo, which shares the primary key.
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Title     string    `gorm:"size:512" json:"title"`
	Rating    int       `gorm:"default:0" json:"rating"`
	Notes     string    `gorm:"type:text" json:"notes"`
	Info      *BookInfo `gorm:"foreignKey:ID;references:ID" json:"info,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BookInfo is the extended record. It exists only when at least one of its
// fields is set and never without the matching Book row.
type BookInfo struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Author   *string `gorm:"size:256" json:"author,omitempty"`
	Tags     *string `gorm:"type:text" json:"tags,omitempty"` // '#'-delimited token list
	IDScheme *string `gorm:"size:16;uniqueIndex:idx_external_id" json:"id_scheme,omitempty"`
	IDNumber *string `gorm:"size:64;uniqueIndex:idx_external_id" json:"id_number,omitempty"`
	CoverURL *string `gorm:"size:2048" json:"cover_url,omitempty"`
}

// HasExtraInfo reports whether an extended row should exist for the book.
// The cover URL alone does not count: it is derived from the external id.
func (i *BookInfo) HasExtraInfo() bool {
	if i == nil {
		return false
	}
	for _, f := range []*string{i.Author, i.Tags, i.IDScheme, i.IDNumber} {
		if f != nil && *f != "" {
			return true
		}
	}
	return false
}

func (User) TableName() string {
	return "users"
}

func (Invitation) TableName() string {
	return "invitations"
}

func (Book) TableName() string {
	return "books_basic_info"
}

func (BookInfo) TableName() string {
	return "books_full_info"
}
