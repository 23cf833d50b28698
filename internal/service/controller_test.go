package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"floodmap-api/internal/models"
	"floodmap-api/internal/observability"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockReportStore is a mock implementation of the ReportStore interface
type MockReportStore struct {
	mock.Mock
}

func (m *MockReportStore) FetchAll(ctx context.Context) ([]models.FloodReport, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.FloodReport), args.Error(1)
}

func (m *MockReportStore) Create(ctx context.Context, report models.FloodReport) (models.FloodReport, error) {
	args := m.Called(ctx, report)
	return args.Get(0).(models.FloodReport), args.Error(1)
}

func (m *MockReportStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeSurface records what the controller asked the map to show.
type fakeSurface struct {
	mu      sync.Mutex
	pins    []models.Pin
	center  *models.Coordinate
	span    float64
	centers int
}

func (s *fakeSurface) ShowReports(pins []models.Pin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pins = append([]models.Pin(nil), pins...)
}

func (s *fakeSurface) AddPin(pin models.Pin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pins = append(s.pins, pin)
}

// RemovePin matches mapsurface.Board: a pin with the same report id wins over
// the first pin at the coordinate.
func (s *fakeSurface) RemovePin(pin models.Pin) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match := -1
	for i, p := range s.pins {
		if !p.Coordinate.Equal(pin.Coordinate) {
			continue
		}
		if pin.ReportID != "" && p.ReportID == pin.ReportID {
			match = i
			break
		}
		if match < 0 {
			match = i
		}
	}
	if match >= 0 {
		s.pins = append(s.pins[:match], s.pins[match+1:]...)
	}
}

func (s *fakeSurface) CenterOn(center models.Coordinate, spanMeters float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = &center
	s.span = spanMeters
	s.centers++
}

func (s *fakeSurface) Pins() []models.Pin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Pin(nil), s.pins...)
}

var testNow = time.Date(2016, 8, 2, 10, 0, 0, 0, time.UTC)

type harness struct {
	ctrl    *FloodReportController
	store   *MockReportStore
	surface *fakeSurface
	cancel  context.CancelFunc
	stopped chan error
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := new(MockReportStore)
	surface := &fakeSurface{}
	ctrl := NewFloodReportController(
		store,
		surface,
		Options{ReportTitle: "Flooding reported", RegionSpanMeters: 250, BackendTimeout: time.Second},
		clockwork.NewFakeClockAt(testNow),
		observability.NewMetricsForTesting(),
		zerolog.Nop(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{ctrl: ctrl, store: store, surface: surface, cancel: cancel, stopped: make(chan error, 1)}
	go func() { h.stopped <- ctrl.Run(ctx) }()

	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.ctrl.Done()
}

func wait(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for completion")
		return Result{}
	}
}

func TestController_LoadPopulatesCacheAndMap(t *testing.T) {
	h := newHarness(t)
	h.store.On("FetchAll", mock.Anything).Return([]models.FloodReport{
		report("a", 37.0, -122.0),
		report("b", 37.1, -122.1),
	}, nil)

	state, err := h.ctrl.State()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, state)

	res := wait(t, h.ctrl.Load())
	require.NoError(t, res.Err)

	snap, err := h.ctrl.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, 2, snap.CachedReports)
	assert.Equal(t, []models.Pin{
		{Coordinate: models.Coordinate{Latitude: 37.0, Longitude: -122.0}, Title: "Flooding reported", ReportID: "a"},
		{Coordinate: models.Coordinate{Latitude: 37.1, Longitude: -122.1}, Title: "Flooding reported", ReportID: "b"},
	}, h.surface.Pins())

	h.store.AssertExpectations(t)
}

func TestController_LoadFailureLeavesEmptyReadySession(t *testing.T) {
	h := newHarness(t)
	backendErr := &models.BackendError{Op: "fetch", Err: assert.AnError}
	h.store.On("FetchAll", mock.Anything).Return([]models.FloodReport(nil), backendErr)

	res := wait(t, h.ctrl.Load())
	assert.ErrorIs(t, res.Err, assert.AnError)

	snap, err := h.ctrl.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StateReady, snap.State)
	assert.Zero(t, snap.CachedReports)
	assert.Empty(t, h.surface.Pins())
}

func TestController_ReloadReplacesReports(t *testing.T) {
	h := newHarness(t)
	h.store.On("FetchAll", mock.Anything).Return([]models.FloodReport{report("a", 37.0, -122.0)}, nil).Once()
	h.store.On("FetchAll", mock.Anything).Return([]models.FloodReport{report("b", 37.1, -122.1)}, nil).Once()

	require.NoError(t, wait(t, h.ctrl.Load()).Err)
	require.NoError(t, wait(t, h.ctrl.Load()).Err)

	pins := h.surface.Pins()
	require.Len(t, pins, 1)
	assert.Equal(t, "b", pins[0].ReportID)

	snap, err := h.ctrl.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CachedReports)
}

func TestController_FirstLocationCentersMap(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.ctrl.LocationChanged(models.Coordinate{Latitude: 37.33, Longitude: -122.03}))
	require.NoError(t, h.ctrl.LocationChanged(models.Coordinate{Latitude: 37.34, Longitude: -122.04}))

	err := h.ctrl.LocationChanged(models.Coordinate{Latitude: 91, Longitude: 0})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	snap, err := h.ctrl.Snapshot()
	require.NoError(t, err)
	require.NotNil(t, snap.Location)
	assert.Equal(t, models.Coordinate{Latitude: 37.34, Longitude: -122.04}, *snap.Location)

	h.surface.mu.Lock()
	defer h.surface.mu.Unlock()
	assert.Equal(t, 1, h.surface.centers)
	assert.Equal(t, models.Coordinate{Latitude: 37.33, Longitude: -122.03}, *h.surface.center)
	assert.Equal(t, 250.0, h.surface.span)
}

func TestController_CreateAddsPinAndCapturesID(t *testing.T) {
	h := newHarness(t)
	coord := models.Coordinate{Latitude: 37.33, Longitude: -122.03}
	draft := models.FloodReport{Coordinate: coord, Title: "Flooding reported", CreatedAt: testNow}
	persisted := draft
	persisted.ID = "rec-1"

	h.store.On("Create", mock.Anything, draft).Return(persisted, nil)
	require.NoError(t, h.ctrl.LocationChanged(coord))

	res := wait(t, h.ctrl.Create())
	require.NoError(t, res.Err)
	assert.Equal(t, persisted, res.Report)

	assert.Equal(t, []models.Pin{{Coordinate: coord, Title: "Flooding reported", ReportID: "rec-1"}}, h.surface.Pins())

	snap, err := h.ctrl.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CachedReports)
	h.store.AssertExpectations(t)
}

func TestController_CreateFailureAddsNothing(t *testing.T) {
	h := newHarness(t)
	coord := models.Coordinate{Latitude: 37.33, Longitude: -122.03}
	h.store.On("Create", mock.Anything, mock.Anything).
		Return(models.FloodReport{}, &models.BackendError{Op: "create", Err: assert.AnError})
	require.NoError(t, h.ctrl.LocationChanged(coord))

	res := wait(t, h.ctrl.Create())

	var backendErr *models.BackendError
	require.ErrorAs(t, res.Err, &backendErr)
	assert.Empty(t, h.surface.Pins())

	snap, err := h.ctrl.Snapshot()
	require.NoError(t, err)
	assert.Zero(t, snap.CachedReports)
	assert.Equal(t, StateIdle, snap.State)
}

func TestController_CreateWithoutIDIsBackendError(t *testing.T) {
	h := newHarness(t)
	h.store.On("Create", mock.Anything, mock.Anything).Return(models.FloodReport{}, nil)
	require.NoError(t, h.ctrl.LocationChanged(models.Coordinate{Latitude: 37.33, Longitude: -122.03}))

	res := wait(t, h.ctrl.Create())

	var backendErr *models.BackendError
	require.ErrorAs(t, res.Err, &backendErr)
	assert.Empty(t, h.surface.Pins())
}

func TestController_CreateWithoutLocation(t *testing.T) {
	h := newHarness(t)

	res := wait(t, h.ctrl.Create())

	assert.ErrorIs(t, res.Err, models.ErrNoLocation)
	h.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestController_DeleteSelectedRemovesOnlyThatReport(t *testing.T) {
	h := newHarness(t)
	h.store.On("FetchAll", mock.Anything).Return([]models.FloodReport{
		report("a", 37.0, -122.0),
		report("b", 37.1, -122.1),
	}, nil)
	h.store.On("Delete", mock.Anything, "a").Return(nil)

	require.NoError(t, wait(t, h.ctrl.Load()).Err)

	// The client echoes the pin without its report id.
	require.NoError(t, h.ctrl.SelectPin(models.Pin{Coordinate: models.Coordinate{Latitude: 37.0, Longitude: -122.0}}))
	res := wait(t, h.ctrl.DeleteSelected())
	require.NoError(t, res.Err)
	assert.Equal(t, "a", res.Report.ID)

	pins := h.surface.Pins()
	require.Len(t, pins, 1)
	assert.Equal(t, "b", pins[0].ReportID)

	snap, err := h.ctrl.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CachedReports)
	assert.Nil(t, snap.Selected)

	h.store.AssertExpectations(t)
}

// assertPinsMatchCache checks every shown pin has exactly one cached report behind it.
func assertPinsMatchCache(t *testing.T, h *harness, expectedIDs ...string) {
	t.Helper()

	ids := make([]string, 0, len(h.surface.Pins()))
	for _, p := range h.surface.Pins() {
		ids = append(ids, p.ReportID)
	}
	assert.ElementsMatch(t, expectedIDs, ids)

	snap, err := h.ctrl.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, len(expectedIDs), snap.CachedReports)
}

func TestController_DeleteSharedCoordinateRemovesDeletedReportsPin(t *testing.T) {
	h := newHarness(t)
	coord := models.Coordinate{Latitude: 37.0, Longitude: -122.0}
	first := models.FloodReport{ID: "a", Coordinate: coord, Title: "A"}
	second := models.FloodReport{ID: "b", Coordinate: coord, Title: "B"}
	h.store.On("FetchAll", mock.Anything).Return([]models.FloodReport{first, second}, nil)
	h.store.On("Delete", mock.Anything, "a").Return(nil)

	require.NoError(t, wait(t, h.ctrl.Load()).Err)

	// Selecting b's pin still resolves to the earliest report at the coordinate.
	require.NoError(t, h.ctrl.SelectPin(second.Pin()))
	res := wait(t, h.ctrl.DeleteSelected())
	require.NoError(t, res.Err)
	assert.Equal(t, first, res.Report)

	assert.Equal(t, []models.Pin{second.Pin()}, h.surface.Pins())
	assertPinsMatchCache(t, h, "b")

	snap, err := h.ctrl.Snapshot()
	require.NoError(t, err)
	assert.Nil(t, snap.Selected)
	h.store.AssertExpectations(t)
}

func TestController_DeleteRejectsCapturedIDCachedElsewhere(t *testing.T) {
	h := newHarness(t)
	h.store.On("FetchAll", mock.Anything).Return([]models.FloodReport{
		report("a", 37.0, -122.0),
		report("b", 38.0, -121.0),
	}, nil)
	require.NoError(t, wait(t, h.ctrl.Load()).Err)

	require.NoError(t, h.ctrl.SelectPin(models.Pin{Coordinate: models.Coordinate{Latitude: 0, Longitude: 0}, ReportID: "b"}))
	res := wait(t, h.ctrl.DeleteSelected())

	var recErr *models.ReconciliationError
	require.ErrorAs(t, res.Err, &recErr)
	h.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	assertPinsMatchCache(t, h, "a", "b")
}

func TestController_DeleteUsesCapturedIDForLocalPin(t *testing.T) {
	h := newHarness(t)
	pin := models.Pin{Coordinate: models.Coordinate{Latitude: 40.0, Longitude: -100.0}, ReportID: "local-1"}
	h.store.On("Delete", mock.Anything, "local-1").Return(nil)

	require.NoError(t, h.ctrl.SelectPin(pin))
	res := wait(t, h.ctrl.DeleteSelected())
	require.NoError(t, res.Err)
	assert.Equal(t, "local-1", res.Report.ID)

	h.store.AssertExpectations(t)
}

func TestController_DeleteUnresolvablePinNeverCallsStore(t *testing.T) {
	h := newHarness(t)
	h.store.On("FetchAll", mock.Anything).Return([]models.FloodReport{report("a", 37.0, -122.0)}, nil)
	require.NoError(t, wait(t, h.ctrl.Load()).Err)

	require.NoError(t, h.ctrl.SelectPin(models.Pin{Coordinate: models.Coordinate{Latitude: 37.0, Longitude: -121.0}}))
	res := wait(t, h.ctrl.DeleteSelected())

	var recErr *models.ReconciliationError
	require.ErrorAs(t, res.Err, &recErr)
	h.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	assert.Len(t, h.surface.Pins(), 1)

	snap, err := h.ctrl.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CachedReports)
	assert.NotNil(t, snap.Selected, "selection survives an aborted delete")
}

func TestController_DeleteWithoutSelection(t *testing.T) {
	h := newHarness(t)

	res := wait(t, h.ctrl.DeleteSelected())
	assert.ErrorIs(t, res.Err, ErrNoSelection)

	require.NoError(t, h.ctrl.SelectPin(models.Pin{ReportID: "x"}))
	require.NoError(t, h.ctrl.Deselect())

	res = wait(t, h.ctrl.DeleteSelected())
	assert.ErrorIs(t, res.Err, ErrNoSelection)
}

func TestController_DeleteFailureKeepsPin(t *testing.T) {
	h := newHarness(t)
	h.store.On("FetchAll", mock.Anything).Return([]models.FloodReport{report("a", 37.0, -122.0)}, nil)
	h.store.On("Delete", mock.Anything, "a").Return(&models.BackendError{Op: "delete", Err: models.ErrReportNotFound})
	require.NoError(t, wait(t, h.ctrl.Load()).Err)

	require.NoError(t, h.ctrl.SelectPin(models.Pin{Coordinate: models.Coordinate{Latitude: 37.0, Longitude: -122.0}}))
	res := wait(t, h.ctrl.DeleteSelected())

	assert.ErrorIs(t, res.Err, models.ErrReportNotFound)
	assert.Len(t, h.surface.Pins(), 1)

	snap, err := h.ctrl.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CachedReports)
	assert.Equal(t, StateReady, snap.State)
}

func TestController_StateWhileInFlight(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.store.On("FetchAll", mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return([]models.FloodReport{}, nil)
	h.store.On("Create", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(report("c", 37.33, -122.03), nil)

	loaded := h.ctrl.Load()
	state, err := h.ctrl.State()
	require.NoError(t, err)
	assert.Equal(t, StateFetchingInitial, state)

	require.NoError(t, h.ctrl.LocationChanged(models.Coordinate{Latitude: 37.33, Longitude: -122.03}))
	created := h.ctrl.Create()
	state, err = h.ctrl.State()
	require.NoError(t, err)
	assert.Equal(t, StateCreating, state)

	close(release)
	require.NoError(t, wait(t, loaded).Err)
	require.NoError(t, wait(t, created).Err)

	state, err = h.ctrl.State()
	require.NoError(t, err)
	assert.Equal(t, StateReady, state)
}

func TestController_CompletionAfterStopIsDiscarded(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.store.On("Create", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(report("c", 37.33, -122.03), nil)

	require.NoError(t, h.ctrl.LocationChanged(models.Coordinate{Latitude: 37.33, Longitude: -122.03}))
	created := h.ctrl.Create()

	h.stop()
	require.NoError(t, <-h.stopped)
	close(release)

	res := wait(t, created)
	assert.ErrorIs(t, res.Err, ErrSessionClosed)
	assert.Empty(t, h.surface.Pins())
}

func TestController_RequestsAfterStop(t *testing.T) {
	h := newHarness(t)
	h.stop()

	assert.ErrorIs(t, wait(t, h.ctrl.Load()).Err, ErrSessionClosed)
	assert.ErrorIs(t, wait(t, h.ctrl.Create()).Err, ErrSessionClosed)
	assert.ErrorIs(t, wait(t, h.ctrl.DeleteSelected()).Err, ErrSessionClosed)
	assert.ErrorIs(t, h.ctrl.SelectPin(models.Pin{}), ErrSessionClosed)
	assert.ErrorIs(t, h.ctrl.LocationChanged(models.Coordinate{}), ErrSessionClosed)

	_, err := h.ctrl.Snapshot()
	assert.ErrorIs(t, err, ErrSessionClosed)
}
