package domain

import (
	"context"
	"time"
)

// FileStorage stores generated files and returns their public URLs.
type FileStorage interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// QRGenerator encodes content as a PNG QR code.
type QRGenerator interface {
	PNG(content string) ([]byte, error)
}

// ExportFormat is a check-in export file format.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// Valid reports whether f is a supported export format.
func (f ExportFormat) Valid() bool {
	return f == ExportCSV || f == ExportXLSX
}

// ContentType returns the MIME type of f.
func (f ExportFormat) ContentType() string {
	if f == ExportXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// CheckinExporter renders an event's attendance list as a file.
// Times are rendered in loc.
type CheckinExporter interface {
	Export(format ExportFormat, event *Event, records []*AttendanceWithAttendee, loc *time.Location) ([]byte, error)
}
