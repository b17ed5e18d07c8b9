package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_CollapsesConcurrentCalls(t *testing.T) {
	var g SingleFlight
	var executions atomic.Int32

	const callers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(callers)

	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			<-start
			val, err, _ := g.Do("league-1", func() (any, error) {
				executions.Add(1)
				time.Sleep(20 * time.Millisecond)
				return "resolved", nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if val != "resolved" {
				t.Errorf("unexpected result: %v", val)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("unexpected execution count: got=%d want=1", got)
	}
}

func TestSingleFlight_SequentialCallsRunIndependently(t *testing.T) {
	var g SingleFlight
	calls := 0

	for i := 0; i < 3; i++ {
		_, err, wasShared := g.Do("key", func() (any, error) {
			calls++
			return calls, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if wasShared {
			t.Fatalf("sequential call %d should not be shared", i)
		}
	}
	if calls != 3 {
		t.Fatalf("unexpected call count: got=%d want=3", calls)
	}
}
