package models

import "time"

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Equal reports whether both latitude and longitude match exactly. No tolerance is applied.
func (c Coordinate) Equal(other Coordinate) bool {
	return c.Latitude == other.Latitude && c.Longitude == other.Longitude
}

// Valid reports whether the coordinate lies within WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// FloodReport is a user-submitted flooding incident. ID is empty until the report has been persisted.
type FloodReport struct {
	ID         string     `json:"id,omitempty"`
	Coordinate Coordinate `json:"coordinate"`
	Title      string     `json:"title"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Pin returns the map marker for the report, carrying its id as a back-reference.
func (r FloodReport) Pin() Pin {
	return Pin{Coordinate: r.Coordinate, Title: r.Title, ReportID: r.ID}
}

// Pin is a marker shown on the map surface. ReportID is a lookup key into the
// report cache, never an ownership relation, and may be empty.
type Pin struct {
	Coordinate Coordinate `json:"coordinate"`
	Title      string     `json:"title"`
	ReportID   string     `json:"report_id,omitempty"`
}
