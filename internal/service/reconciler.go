package service

import "floodmap-api/internal/models"

// AnnotationReconciler resolves a selected pin to the backend record it should delete.
type AnnotationReconciler struct {
	cache *ReportCache
}

func NewAnnotationReconciler(cache *ReportCache) *AnnotationReconciler {
	return &AnnotationReconciler{cache: cache}
}

// Resolve looks the pin's coordinate up in the cache, falling back to the id
// captured on the pin when it was created. The returned pin is the one shown
// for the resolved record; its ReportID is the id to delete.
//
// A captured id that belongs to a cached report at another coordinate is
// rejected, so a delete never leaves a pin behind for a removed record.
func (r *AnnotationReconciler) Resolve(pin models.Pin) (models.Pin, error) {
	if report, ok := r.cache.FindByCoordinate(pin.Coordinate); ok && report.ID != "" {
		return report.Pin(), nil
	}
	if pin.ReportID == "" {
		return models.Pin{}, &models.ReconciliationError{Pin: pin}
	}
	if _, ok := r.cache.FindByID(pin.ReportID); ok {
		return models.Pin{}, &models.ReconciliationError{Pin: pin}
	}
	return models.Pin{Coordinate: pin.Coordinate, Title: pin.Title, ReportID: pin.ReportID}, nil
}
