package repository

import (
	"time"

	"floodmap-api/internal/models"

	"github.com/rs/zerolog"
)

// Field names shared by every backend's FloodingReport record.
const (
	RecordType     = "FloodingReport"
	locationField  = "location"
	titleField     = "title"
	createdAtField = "createdAt"
)

// record is a backend row before validation. A nil coordinate means the
// location field was absent or of the wrong type.
type record struct {
	ID        string
	Title     string
	Latitude  *float64
	Longitude *float64
	CreatedAt time.Time
}

func (rec record) report() (models.FloodReport, error) {
	if rec.ID == "" {
		return models.FloodReport{}, &models.MalformedRecordError{RecordID: "<empty>", Field: "id"}
	}
	if rec.Latitude == nil || rec.Longitude == nil {
		return models.FloodReport{}, &models.MalformedRecordError{RecordID: rec.ID, Field: locationField}
	}

	coord := models.Coordinate{Latitude: *rec.Latitude, Longitude: *rec.Longitude}
	if !coord.Valid() {
		return models.FloodReport{}, &models.MalformedRecordError{RecordID: rec.ID, Field: locationField}
	}

	return models.FloodReport{
		ID:         rec.ID,
		Coordinate: coord,
		Title:      rec.Title,
		CreatedAt:  rec.CreatedAt,
	}, nil
}

// collectReports converts records into reports, logging and skipping malformed ones.
func collectReports(records []record, logger zerolog.Logger) []models.FloodReport {
	reports := make([]models.FloodReport, 0, len(records))
	for _, rec := range records {
		report, err := rec.report()
		if err != nil {
			logger.Warn().Err(err).Str("record_id", rec.ID).Msg("skipping malformed record")
			continue
		}
		reports = append(reports, report)
	}
	return reports
}

func floatPtr(f float64) *float64 {
	return &f
}
