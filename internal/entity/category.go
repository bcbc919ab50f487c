package entity

import (
	"strings"
	"time"
)

// MaxCategoryDepth bounds the category tree. Roots are depth 0, so the tree
// holds at most four levels.
const MaxCategoryDepth = 3

// Category is a node of the marketplace category tree. ParentID is a
// back-reference by id, not an owning pointer: nodes live in a flat
// collection and the tree shape is derived from the id links.
type Category struct {
	ID           string
	Name         string
	Slug         string
	Kind         string
	ParentID     *string
	Depth        int
	ListingCount int64
	IsActive     bool
	SortOrder    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil || *c.ParentID == ""
}

// Slugify builds a URL-safe slug from a category name. Lowercase ASCII
// letters and digits are kept, everything else collapses to single dashes.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
