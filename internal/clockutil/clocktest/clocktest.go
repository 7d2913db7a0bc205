// Package clocktest drives a fake clock for tests of code that sleeps
// through clockutil.Sleep.
package clocktest

import (
	"sync"
	"time"

	testingclock "k8s.io/utils/clock/testing"
)

// AutoStep advances fc by step every time a timer is waiting on it, so code
// under test never blocks on a sleep. The returned function stops the
// stepping goroutine and waits for it to exit.
func AutoStep(fc *testingclock.FakeClock, step time.Duration) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if fc.HasWaiters() {
				fc.Step(step)
				continue
			}
			time.Sleep(50 * time.Microsecond)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
