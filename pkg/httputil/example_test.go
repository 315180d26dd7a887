package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/manifestcheck/pkg/httputil"
)

func ExamplePolicy_Delay() {
	p := httputil.Policy{Attempts: 5, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	for attempt := 1; attempt <= 4; attempt++ {
		fmt.Println(p.Delay(attempt))
	}
	// Output:
	// 1s
	// 2s
	// 4s
	// 5s
}

func ExamplePolicy_Do() {
	p := httputil.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return httputil.Retryable(errors.New("empty body"))
		}
		return nil
	}, func(attempt int, _ time.Duration, err error) {
		fmt.Printf("attempt %d failed: %v\n", attempt, err)
	})

	fmt.Println("calls:", calls, "err:", err)
	// Output:
	// attempt 1 failed: empty body
	// attempt 2 failed: empty body
	// calls: 3 err: <nil>
}
