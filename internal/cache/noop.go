package cache

import (
	"context"
	"time"
)

// NoOp is the disabled-cache variant: every operation is an immediate
// no-op and every lookup is a miss.
type NoOp struct{}

// NewNoOp creates a new no-op cache.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// GetJSON always reports a miss.
func (*NoOp) GetJSON(_ context.Context, _ string, _ any) bool {
	return false
}

// SetJSON does nothing.
func (*NoOp) SetJSON(_ context.Context, _ string, _ any, _ time.Duration) {}

// Close does nothing.
func (*NoOp) Close() {}
