package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"floodmap-api/internal/models"
	"floodmap-api/internal/observability"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

var (
	// ErrSessionClosed is returned for requests issued, or completions delivered, after the session stopped.
	ErrSessionClosed = errors.New("service: session closed")
	// ErrNoSelection is returned when a delete is requested with no pin selected.
	ErrNoSelection = errors.New("service: no pin selected")
	// ErrInvalidCoordinate is returned for location updates outside WGS84 bounds.
	ErrInvalidCoordinate = errors.New("service: invalid coordinate")
)

// ReportStore interface for dependency injection
type ReportStore interface {
	FetchAll(ctx context.Context) ([]models.FloodReport, error)
	Create(ctx context.Context, report models.FloodReport) (models.FloodReport, error)
	Delete(ctx context.Context, id string) error
}

// MapSurface is the host map the session draws on.
type MapSurface interface {
	// ShowReports replaces every report pin currently shown.
	ShowReports(pins []models.Pin)
	AddPin(pin models.Pin)
	RemovePin(pin models.Pin)
	CenterOn(center models.Coordinate, spanMeters float64)
}

// State of the session as seen by the host.
type State string

const (
	StateIdle            State = "idle"
	StateFetchingInitial State = "fetching_initial"
	StateReady           State = "ready"
	StateCreating        State = "creating"
	StateDeleting        State = "deleting"
)

// Result is the single completion of a session request.
type Result struct {
	Report models.FloodReport
	Err    error
}

// Snapshot is a point-in-time view of the session.
type Snapshot struct {
	State         State              `json:"state"`
	CachedReports int                `json:"cached_reports"`
	Location      *models.Coordinate `json:"location,omitempty"`
	Selected      *models.Pin        `json:"selected,omitempty"`
}

// Options tunes the controller. Zero values fall back to defaults.
type Options struct {
	ReportTitle      string
	RegionSpanMeters float64
	BackendTimeout   time.Duration
}

const (
	defaultReportTitle      = "Flooding reported"
	defaultRegionSpanMeters = 250
	defaultBackendTimeout   = 10 * time.Second
)

// FloodReportController owns one flood-map session. Every piece of session
// state is read and written only by the event loop started with Run; store
// calls run on their own goroutines and post their completions back to it.
type FloodReportController struct {
	store   ReportStore
	surface MapSurface
	opts    Options
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  zerolog.Logger

	events chan func()
	done   chan struct{}

	// Owned by the event loop.
	baseCtx    context.Context
	cache      *ReportCache
	reconciler *AnnotationReconciler
	loaded     bool
	fetching   int
	creating   int
	deleting   int
	location   *models.Coordinate
	selected   *models.Pin
}

// NewFloodReportController creates a session controller. Run must be started before requests are issued.
func NewFloodReportController(store ReportStore, surface MapSurface, opts Options, clock clockwork.Clock, metrics *observability.Metrics, logger zerolog.Logger) *FloodReportController {
	if opts.ReportTitle == "" {
		opts.ReportTitle = defaultReportTitle
	}
	if opts.RegionSpanMeters <= 0 {
		opts.RegionSpanMeters = defaultRegionSpanMeters
	}
	if opts.BackendTimeout <= 0 {
		opts.BackendTimeout = defaultBackendTimeout
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	cache := NewReportCache()
	return &FloodReportController{
		store:      store,
		surface:    surface,
		opts:       opts,
		clock:      clock,
		metrics:    metrics,
		logger:     logger.With().Str("component", "controller").Logger(),
		events:     make(chan func()),
		done:       make(chan struct{}),
		cache:      cache,
		reconciler: NewAnnotationReconciler(cache),
	}
}

// Run drives the session event loop until ctx is done. Store calls already in
// flight keep running; their results are discarded.
func (c *FloodReportController) Run(ctx context.Context) error {
	c.baseCtx = context.WithoutCancel(ctx)
	c.metrics.SessionRunning.Set(1)
	c.logger.Info().Msg("session started")

	defer func() {
		close(c.done)
		c.metrics.SessionRunning.Set(0)
		c.logger.Info().Msg("session stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-c.events:
			fn()
		}
	}
}

// Done is closed once the event loop has stopped.
func (c *FloodReportController) Done() <-chan struct{} {
	return c.done
}

// Load fetches every report, replaces the cache, and redraws the report pins.
// It serves both the initial load and later refreshes.
func (c *FloodReportController) Load() <-chan Result {
	return c.request(func(out chan<- Result) {
		c.fetching++
		go func() {
			start := c.clock.Now()
			ctx, cancel := c.backendContext()
			reports, err := c.store.FetchAll(ctx)
			cancel()
			c.observe("fetch", start, err)

			c.complete(out, func() Result { return c.finishLoad(reports, err) })
		}()
	})
}

func (c *FloodReportController) finishLoad(reports []models.FloodReport, err error) Result {
	c.fetching--
	c.loaded = true

	if err != nil {
		c.logger.Error().Err(err).Msg("failed to fetch reports")
		return Result{Err: err}
	}

	c.cache.ReplaceAll(reports)
	pins := make([]models.Pin, 0, len(reports))
	for _, r := range reports {
		pins = append(pins, r.Pin())
	}
	c.surface.ShowReports(pins)
	c.metrics.CachedReports.Set(float64(c.cache.Len()))

	c.logger.Info().Int("reports", len(reports)).Msg("reports loaded")
	return Result{}
}

// LocationChanged records the most recent location fix. The first fix centers the map on it.
func (c *FloodReportController) LocationChanged(coord models.Coordinate) error {
	if !coord.Valid() {
		return fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, coord.Latitude, coord.Longitude)
	}

	return c.do(func() {
		first := c.location == nil
		c.location = &coord
		if first {
			c.surface.CenterOn(coord, c.opts.RegionSpanMeters)
		}
	})
}

// Create persists a report at the current location and, once the store
// assigned its id, adds it to the cache and the map.
func (c *FloodReportController) Create() <-chan Result {
	return c.request(func(out chan<- Result) {
		if c.location == nil {
			c.logger.Warn().Msg("create requested before any location fix")
			out <- Result{Err: fmt.Errorf("service: create: %w", models.ErrNoLocation)}
			return
		}

		draft := models.FloodReport{
			Coordinate: *c.location,
			Title:      c.opts.ReportTitle,
			CreatedAt:  c.clock.Now().UTC(),
		}

		c.creating++
		go func() {
			start := c.clock.Now()
			ctx, cancel := c.backendContext()
			report, err := c.store.Create(ctx, draft)
			cancel()
			c.observe("create", start, err)

			c.complete(out, func() Result { return c.finishCreate(report, err) })
		}()
	})
}

func (c *FloodReportController) finishCreate(report models.FloodReport, err error) Result {
	c.creating--

	if err == nil && report.ID == "" {
		err = &models.BackendError{Op: "create", Err: errors.New("store returned a report without an id")}
		c.metrics.BackendErrors.WithLabelValues("create").Inc()
	}
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to create report")
		return Result{Err: err}
	}

	c.cache.Add(report)
	c.surface.AddPin(report.Pin())
	c.metrics.ReportsCreated.Inc()
	c.metrics.CachedReports.Set(float64(c.cache.Len()))

	c.logger.Info().Str("report_id", report.ID).Msg("report created")
	return Result{Report: report}
}

// SelectPin marks pin as the target of the next delete.
func (c *FloodReportController) SelectPin(pin models.Pin) error {
	return c.do(func() {
		c.selected = &pin
	})
}

// Deselect clears the current selection.
func (c *FloodReportController) Deselect() error {
	return c.do(func() {
		c.selected = nil
	})
}

// DeleteSelected deletes the selected pin's backend record, then removes the
// pin from the cache and the map. A pin without a resolvable id is left alone.
func (c *FloodReportController) DeleteSelected() <-chan Result {
	return c.request(func(out chan<- Result) {
		if c.selected == nil {
			out <- Result{Err: ErrNoSelection}
			return
		}
		pin := *c.selected

		target, err := c.reconciler.Resolve(pin)
		if err != nil {
			c.metrics.ReconciliationErrors.Inc()
			c.logger.Warn().Err(err).Msg("delete aborted")
			out <- Result{Err: err}
			return
		}

		c.deleting++
		go func() {
			start := c.clock.Now()
			ctx, cancel := c.backendContext()
			err := c.store.Delete(ctx, target.ReportID)
			cancel()
			c.observe("delete", start, err)

			c.complete(out, func() Result { return c.finishDelete(pin, target, err) })
		}()
	})
}

// finishDelete removes the pin of the record that was deleted, which is not
// necessarily the selected pin when several reports share a coordinate.
func (c *FloodReportController) finishDelete(selected, target models.Pin, err error) Result {
	c.deleting--

	if err != nil {
		c.logger.Error().Err(err).Str("report_id", target.ReportID).Msg("failed to delete report")
		return Result{Err: err}
	}

	c.cache.Remove(target.ReportID)
	c.surface.RemovePin(target)
	if c.selected != nil && *c.selected == selected {
		c.selected = nil
	}
	c.metrics.ReportsDeleted.Inc()
	c.metrics.CachedReports.Set(float64(c.cache.Len()))

	c.logger.Info().Str("report_id", target.ReportID).Msg("report deleted")
	return Result{Report: models.FloodReport{ID: target.ReportID, Coordinate: target.Coordinate, Title: target.Title}}
}

// Snapshot returns the current session state.
func (c *FloodReportController) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := c.do(func() {
		snap = Snapshot{
			State:         c.state(),
			CachedReports: c.cache.Len(),
		}
		if c.location != nil {
			loc := *c.location
			snap.Location = &loc
		}
		if c.selected != nil {
			sel := *c.selected
			snap.Selected = &sel
		}
	})
	return snap, err
}

// State returns the current session state.
func (c *FloodReportController) State() (State, error) {
	snap, err := c.Snapshot()
	return snap.State, err
}

func (c *FloodReportController) state() State {
	switch {
	case c.deleting > 0:
		return StateDeleting
	case c.creating > 0:
		return StateCreating
	case c.fetching > 0 && !c.loaded:
		return StateFetchingInitial
	case !c.loaded:
		return StateIdle
	default:
		return StateReady
	}
}

// post hands fn to the event loop. It reports false once the loop stopped.
func (c *FloodReportController) post(fn func()) bool {
	select {
	case c.events <- fn:
		return true
	case <-c.done:
		return false
	}
}

// do runs fn on the event loop and waits for it.
func (c *FloodReportController) do(fn func()) error {
	finished := make(chan struct{})
	if !c.post(func() {
		fn()
		close(finished)
	}) {
		return ErrSessionClosed
	}
	<-finished
	return nil
}

func (c *FloodReportController) request(start func(out chan<- Result)) <-chan Result {
	out := make(chan Result, 1)
	if !c.post(func() { start(out) }) {
		out <- Result{Err: ErrSessionClosed}
	}
	return out
}

// complete applies a store completion on the event loop, or drops it if the session has stopped.
func (c *FloodReportController) complete(out chan<- Result, apply func() Result) {
	if !c.post(func() { out <- apply() }) {
		c.logger.Debug().Msg("discarding completion after session stopped")
		out <- Result{Err: ErrSessionClosed}
	}
}

func (c *FloodReportController) backendContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.baseCtx, c.opts.BackendTimeout)
}

func (c *FloodReportController) observe(op string, start time.Time, err error) {
	c.metrics.BackendDuration.WithLabelValues(op).Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.BackendErrors.WithLabelValues(op).Inc()
	}
}
