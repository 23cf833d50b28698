// Package scheduler re-runs the session's fresh load on a cron schedule so
// reports filed by other users show up without a restart.
package scheduler

import (
	"fmt"

	"floodmap-api/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Loader is the part of the session the refresher drives.
type Loader interface {
	Load() <-chan service.Result
}

// Refresher triggers Load on a schedule.
type Refresher struct {
	cron   *cron.Cron
	loader Loader
	logger zerolog.Logger
}

// NewRefresher parses spec (standard five-field or descriptor such as "@every 5m").
func NewRefresher(spec string, loader Loader, logger zerolog.Logger) (*Refresher, error) {
	r := &Refresher{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		loader: loader,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}

	if _, err := r.cron.AddFunc(spec, r.refresh); err != nil {
		return nil, fmt.Errorf("scheduler: invalid refresh schedule %q: %w", spec, err)
	}
	return r, nil
}

func (r *Refresher) Start() {
	r.cron.Start()
	r.logger.Info().Msg("report refresh scheduled")
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Refresher) refresh() {
	res := <-r.loader.Load()
	if res.Err != nil {
		r.logger.Warn().Err(res.Err).Msg("scheduled refresh failed")
		return
	}
	r.logger.Debug().Msg("scheduled refresh complete")
}
