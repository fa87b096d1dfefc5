package mocks

import (
	"context"
	"sync"

	"github.com/kylejryan/nail-studio-portal/internal/ports"
)

// Relay records every send.
type Relay struct {
	mu   sync.Mutex
	sent []map[string]string
	Err  error
}

var _ ports.Relay = (*Relay)(nil)

func (r *Relay) Send(_ context.Context, params map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	cp := make(map[string]string, len(params))
	for k, v := range params {
		cp[k] = v
	}
	r.sent = append(r.sent, cp)
	return nil
}

// Sent returns the params of every successful send.
func (r *Relay) Sent() []map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]string(nil), r.sent...)
}
