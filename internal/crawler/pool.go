package crawler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// runSessions processes n tasks on at most workers goroutines. Each worker owns one
// browser session for its whole lifetime and closes it on every exit path. A session
// that cannot be opened cancels the remaining work and is returned as the error.
func runSessions(ctx context.Context, launcher Launcher, workers, n int, fn func(ctx context.Context, page Page, task int)) error {
	if n == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	g, gctx := errgroup.WithContext(ctx)
	tasks := make(chan int)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			page, err := launcher.Open(gctx)
			if err != nil {
				return fmt.Errorf("worker %d: %w", w+1, err)
			}
			defer page.Close()

			for task := range tasks {
				if gctx.Err() != nil {
					continue
				}
				fn(gctx, page, task)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(tasks)
		for i := 0; i < n; i++ {
			select {
			case tasks <- i:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
