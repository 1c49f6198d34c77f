package asset

import (
	"context"
	"sync"

	"depthlens/internal/app"
	dlimage "depthlens/internal/image"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AsyncFetcher runs loads on background goroutines and delivers each
// result back on the scheduler's thread.
type AsyncFetcher struct {
	loader Loader
	sched  app.Scheduler
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAsyncFetcher creates a fetcher. Close cancels in-flight loads.
func NewAsyncFetcher(loader Loader, sched app.Scheduler) *AsyncFetcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &AsyncFetcher{
		loader: loader,
		sched:  sched,
		logger: log.With().Str("module", "asset").Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Fetch starts loading url. done runs on the scheduler with the result.
func (f *AsyncFetcher) Fetch(url string, done func(*dlimage.Source, error)) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		src, err := f.loader.Load(f.ctx, url)
		if err != nil {
			f.logger.Debug().Err(err).Str("url", url).Msg("load failed")
		}
		f.sched.Post(func() { done(src, err) })
	}()
}

// Close cancels outstanding loads and waits for their goroutines.
func (f *AsyncFetcher) Close() {
	f.cancel()
	f.wg.Wait()
}
