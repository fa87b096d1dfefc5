// Package booking builds the address of the embedded scheduling widget.
package booking

import (
	"net/url"
	"strings"

	"github.com/kylejryan/nail-studio-portal/internal/config"
)

// Link is what the booking page embeds.
type Link struct {
	URL     string `json:"url"`
	StaffID string `json:"staffId,omitempty"`
}

// Builder makes booking links from the configured base URL.
type Builder struct {
	Base       string
	StaffParam string
}

// New returns a builder for cfg.
func New(cfg config.Booking) Builder {
	p := cfg.StaffParam
	if p == "" {
		p = "staff"
	}
	return Builder{Base: strings.TrimSpace(cfg.BaseURL), StaffParam: p}
}

// For returns the widget URL, preselecting staffID when it is set. A base
// that does not parse is returned unchanged.
func (b Builder) For(staffID string) Link {
	staffID = strings.TrimSpace(staffID)
	if b.Base == "" || staffID == "" {
		return Link{URL: b.Base}
	}
	u, err := url.Parse(b.Base)
	if err != nil {
		return Link{URL: b.Base}
	}
	q := u.Query()
	q.Set(b.StaffParam, staffID)
	u.RawQuery = q.Encode()
	return Link{URL: u.String(), StaffID: staffID}
}
