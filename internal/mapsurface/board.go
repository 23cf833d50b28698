// Package mapsurface holds the pins and region a session wants the client map to show.
package mapsurface

import (
	"sync"

	"floodmap-api/internal/models"
)

// Region is the visible map area, a square of SpanMeters centered on Center.
type Region struct {
	Center     models.Coordinate `json:"center"`
	SpanMeters float64           `json:"span_meters"`
}

// View is what a client renders: the report pins and, once known, the region.
type View struct {
	Pins   []models.Pin `json:"pins"`
	Region *Region      `json:"region,omitempty"`
}

// Board is a thread-safe map surface. The session writes to it; HTTP handlers read it.
type Board struct {
	mu     sync.RWMutex
	pins   []models.Pin
	region *Region
}

func NewBoard() *Board {
	return &Board{}
}

func (b *Board) ShowReports(pins []models.Pin) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pins = append(make([]models.Pin, 0, len(pins)), pins...)
}

func (b *Board) AddPin(pin models.Pin) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pins = append(b.pins, pin)
}

// RemovePin removes the first pin at the same coordinate, preferring one with the same report id.
func (b *Board) RemovePin(pin models.Pin) {
	b.mu.Lock()
	defer b.mu.Unlock()

	match := -1
	for i, p := range b.pins {
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
		b.pins = append(b.pins[:match], b.pins[match+1:]...)
	}
}

func (b *Board) CenterOn(center models.Coordinate, spanMeters float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.region = &Region{Center: center, SpanMeters: spanMeters}
}

// View returns a copy of the current board.
func (b *Board) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()

	view := View{Pins: append(make([]models.Pin, 0, len(b.pins)), b.pins...)}
	if b.region != nil {
		region := *b.region
		view.Region = &region
	}
	return view
}
