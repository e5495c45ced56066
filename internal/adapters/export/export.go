package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"checkinflow/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName  = "Checkins"
	timeLayout = "2006-01-02 15:04:05"
)

var header = []string{"Name", "Phone", "Company", "Department", "Check-in Time", "Check-out Time", "Status", "Location"}

// utf8BOM lets spreadsheet tools detect UTF-8 in CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type exporter struct{}

// NewExporter returns a CheckinExporter writing CSV via encoding/csv and XLSX via excelize.
func NewExporter() domain.CheckinExporter {
	return exporter{}
}

func (exporter) Export(format domain.ExportFormat, _ *domain.Event, records []*domain.AttendanceWithAttendee, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, toRow(r, loc))
	}
	switch format {
	case domain.ExportCSV:
		return writeCSV(rows)
	case domain.ExportXLSX:
		return writeXLSX(rows)
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidInput, format)
	}
}

func toRow(r *domain.AttendanceWithAttendee, loc *time.Location) []string {
	checkout := ""
	if r.CheckoutTime != nil {
		checkout = r.CheckoutTime.In(loc).Format(timeLayout)
	}
	geo := ""
	if r.Geolocation != nil {
		geo = *r.Geolocation
	}
	return []string{
		r.Attendee.Name,
		r.Attendee.Phone,
		r.Attendee.Company,
		r.Attendee.Department,
		r.CheckinTime.In(loc).Format(timeLayout),
		checkout,
		string(r.Status),
		geo,
	}
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func writeXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	if err := setRow(f, 1, header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := setRow(f, i+2, row); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheetName, cell, &row)
}
