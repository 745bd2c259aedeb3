// Package tags derives the tag cloud from the '#'-delimited tag strings
// stored on extended book records.
package tags

import (
	"sort"
	"strings"

	"gorm.io/gorm"
)

// TagCount is one entry of a tag cloud.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Repository handles tag aggregation queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tags repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// TagCloud returns the user's tags ranked by descending frequency. Counting
// is case-sensitive; ties keep first-seen order. Pure read, recomputed on
// every call.
func (r *Repository) TagCloud(userID uint) ([]TagCount, error) {
	var raw []string
	err := r.db.Table("books_full_info").
		Select("books_full_info.tags").
		Joins("JOIN books_basic_info ON books_basic_info.id = books_full_info.id").
		Where("books_basic_info.user_id = ? AND books_full_info.tags IS NOT NULL", userID).
		Scan(&raw).Error
	if err != nil {
		return nil, err
	}
	return CountTags(raw), nil
}

// CountTags splits each '#'-delimited string into tokens, trims them, drops
// empties and returns per-tag counts sorted by descending count. The sort is
// stable so equal counts preserve first-seen order.
func CountTags(tagStrings []string) []TagCount {
	counts := make(map[string]int)
	var order []string

	for _, s := range tagStrings {
		for _, token := range strings.Split(s, "#") {
			tag := strings.TrimSpace(token)
			if tag == "" {
				continue
			}
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	cloud := make([]TagCount, 0, len(order))
	for _, tag := range order {
		cloud = append(cloud, TagCount{Tag: tag, Count: counts[tag]})
	}
	sort.SliceStable(cloud, func(i, j int) bool {
		return cloud[i].Count > cloud[j].Count
	})
	return cloud
}
