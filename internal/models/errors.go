package models

import (
	"errors"
	"fmt"
)

var (
	// ErrReportNotFound is wrapped by a BackendError when a delete targets an unknown or already deleted record.
	ErrReportNotFound = errors.New("report not found")
	// ErrNoLocation is returned when a report is requested before any location fix arrived.
	ErrNoLocation = errors.New("current location unknown")
)

// BackendError wraps a failure from the remote report store.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ReconciliationError is returned when a selected pin cannot be resolved to a backend record id.
type ReconciliationError struct {
	Pin Pin
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconcile: no report id for pin at (%v, %v)", e.Pin.Coordinate.Latitude, e.Pin.Coordinate.Longitude)
}

// MalformedRecordError describes a fetched record that lacks a usable field.
type MalformedRecordError struct {
	RecordID string
	Field    string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("record %s: missing or invalid field %q", e.RecordID, e.Field)
}
