package common

import (
	"errors"
	"regexp"
	"strings"
)

const maxSlugLen = 64

var (
	ErrEmptySlug = errors.New("slug cannot be empty")
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// RoomSlug builds a URL-friendly slug for a room from its title, falling back
// to the room id when the title has no usable characters.
func RoomSlug(title, roomID string) (string, error) {
	slug := slugify(title)
	if slug == "" {
		slug = slugify(roomID)
	}
	if slug == "" {
		return "", ErrEmptySlug
	}
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	return slug, nil
}

func slugify(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	slug := nonSlugChars.ReplaceAllString(lower, "-")
	return strings.Trim(slug, "-")
}
