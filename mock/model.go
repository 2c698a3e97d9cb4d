// Package mock provides test doubles for tranquility interfaces using
// function fields.
package mock

import (
	"context"
	"encoding/json"

	"github.com/fwojciec/tranquility"
)

// Interface compliance checks.
var (
	_ tranquility.Model     = (*Model)(nil)
	_ tranquility.Transport = (*Transport)(nil)
)

// Model is a test double for tranquility.Model.
// Set GenerateFn before calling Generate.
type Model struct {
	GenerateFn func(ctx context.Context, env tranquility.Envelope) (string, error)
}

// Generate delegates to GenerateFn.
func (m *Model) Generate(ctx context.Context, env tranquility.Envelope) (string, error) {
	return m.GenerateFn(ctx, env)
}

// Transport is a test double for tranquility.Transport.
// Set SendFn before calling Send.
type Transport struct {
	SendFn func(ctx context.Context, url string, payload any) (json.RawMessage, error)
}

// Send delegates to SendFn.
func (t *Transport) Send(ctx context.Context, url string, payload any) (json.RawMessage, error) {
	return t.SendFn(ctx, url, payload)
}
