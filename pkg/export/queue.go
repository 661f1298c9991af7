package export

import (
	"context"
	"time"
)

// taskQueue runs tasks one after another with a pause between them. A
// started task always runs to completion; cancellation only prevents the
// next one from starting.
type taskQueue struct {
	cooldown time.Duration
}

// run executes tasks in order and returns how many were started.
func (q taskQueue) run(ctx context.Context, tasks []func()) int {
	started := 0
	for i, task := range tasks {
		if ctx.Err() != nil {
			return started
		}
		started++
		task()
		if i < len(tasks)-1 {
			if err := sleep(ctx, q.cooldown); err != nil {
				return started
			}
		}
	}
	return started
}
