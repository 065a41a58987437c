// Copyright (c) 2025 BVK Chaitanya

package twap

import (
	"context"
	"time"

	"github.com/bvk/orderbot/ctxutil"
)

// Clock provides the current time and the waits between slices.
type Clock interface {
	Now() time.Time

	// Sleep blocks for the duration or till the context is canceled, in which
	// case it returns the cancellation cause.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock uses the system time.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	return ctxutil.Sleep(ctx, d)
}
