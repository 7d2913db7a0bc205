// Package clockutil holds the interruptible sleep shared by the steps that
// wait on a k8s.io/utils clock.
package clockutil

import (
	"context"
	"time"

	"k8s.io/utils/clock"
)

// Sleep blocks for d on clk or until ctx is done, whichever comes first.
// It returns ctx.Err() when interrupted and nil otherwise. A non-positive d
// returns immediately.
func Sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	t := clk.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}
