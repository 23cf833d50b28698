package service

import "floodmap-api/internal/models"

// ReportCache mirrors the reports the session knows about, in fetch/create order.
// It is not safe for concurrent use; the controller only touches it from its event loop.
type ReportCache struct {
	reports []models.FloodReport
}

func NewReportCache() *ReportCache {
	return &ReportCache{}
}

// ReplaceAll swaps the cache contents for reports.
func (c *ReportCache) ReplaceAll(reports []models.FloodReport) {
	c.reports = append(make([]models.FloodReport, 0, len(reports)), reports...)
}

// Add appends a single report.
func (c *ReportCache) Add(report models.FloodReport) {
	c.reports = append(c.reports, report)
}

// Remove drops the entry with the given id and reports whether one was found.
func (c *ReportCache) Remove(id string) bool {
	for i, r := range c.reports {
		if r.ID == id {
			c.reports = append(c.reports[:i], c.reports[i+1:]...)
			return true
		}
	}
	return false
}

// FindByCoordinate returns the first report whose coordinate equals coord exactly.
// When several reports share a coordinate the earliest entry wins.
func (c *ReportCache) FindByCoordinate(coord models.Coordinate) (models.FloodReport, bool) {
	for _, r := range c.reports {
		if r.Coordinate.Equal(coord) {
			return r, true
		}
	}
	return models.FloodReport{}, false
}

// FindByID returns the report with the given id.
func (c *ReportCache) FindByID(id string) (models.FloodReport, bool) {
	for _, r := range c.reports {
		if r.ID == id {
			return r, true
		}
	}
	return models.FloodReport{}, false
}

func (c *ReportCache) Len() int {
	return len(c.reports)
}

// Reports returns a copy of the cached reports.
func (c *ReportCache) Reports() []models.FloodReport {
	return append([]models.FloodReport(nil), c.reports...)
}
