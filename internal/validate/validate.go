// Package validate provides the input checks run before any network call.
package validate

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kylejryan/nail-studio-portal/internal/models"
)

// Error is a validation failure. Its message is safe to show inline.
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string { return e.Msg }

// New returns a validation error for field.
func New(field, msg string) error { return &Error{Field: field, Msg: msg} }

// IsValidation reports whether err is (or wraps) a validation failure.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// All runs validators in order and returns the first failure.
func All(validators ...func() error) error {
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

var (
	emailRx = regexp.MustCompile(`.+@.+\..+`)

	imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true, ".heic": true}
)

// ImageFilename checks that the filename has an image extension (case insensitive).
func ImageFilename(fn string) error {
	if strings.TrimSpace(fn) == "" {
		return New("file", "file name required")
	}
	if !imageExts[strings.ToLower(filepath.Ext(fn))] {
		return New("file", "only image files allowed")
	}
	return nil
}

// ContentTypeImage checks that the Content-Type is an image type.
func ContentTypeImage(ct string) error {
	if !strings.HasPrefix(strings.TrimSpace(strings.ToLower(ct)), "image/") {
		return New("content_type", "Content-Type must be an image type")
	}
	return nil
}

// FileSize checks 0 < size <= max.
func FileSize(size, max int64) error {
	if size <= 0 {
		return New("file", "file is empty")
	}
	if max > 0 && size > max {
		return New("file", fmt.Sprintf("file too large (max %d MB)", max>>20))
	}
	return nil
}

// Category checks c is a storable category.
func Category(c models.Category) error {
	for _, known := range models.Categories {
		if c == known {
			return nil
		}
	}
	return New("category", "unknown category: "+string(c))
}

// FilterCategory is Category that also accepts "all" and empty.
func FilterCategory(c models.Category) error {
	if c == "" || c == models.CategoryAll {
		return nil
	}
	return Category(c)
}

// Required checks that value is non-empty after trimming whitespace.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return New(field, field+" is required")
	}
	return nil
}

// Email checks the loose shape the contact form accepts.
func Email(e string) error {
	if !emailRx.MatchString(e) {
		return New("email", "That email looks off.")
	}
	return nil
}

// MinLen checks value has at least n characters after trimming.
func MinLen(field, value string, n int, msg string) error {
	if len([]rune(strings.TrimSpace(value))) < n {
		return New(field, msg)
	}
	return nil
}

// Prefix checks key sits under one of the allowed prefixes.
func Prefix(key string, allowed []string) error {
	for _, p := range allowed {
		if strings.HasPrefix(key, strings.TrimSuffix(p, "/")+"/") {
			return nil
		}
	}
	return New("path", "path outside the media namespace")
}
