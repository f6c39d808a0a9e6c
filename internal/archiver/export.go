package archiver

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"meterstock/internal/model"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// csvHeader lists every persisted record field. Exports must round-trip the
// whole record losslessly; that is the archiver's only contract with the
// lifecycle data model.
var csvHeader = []string{
	"id", "request_id", "origin", "status", "version", "item_type",
	"contractor_name", "installer_name", "requested_quantity", "contractor_notes",
	"manufacturer_name", "batch_number", "dispatch_quantity", "dispatch_date",
	"approved_quantity", "reviewer_notes", "decline_reason",
	"proof_photo_ref", "dispatch_document_ref",
	"approved_at", "received_at", "created_at", "updated_at",
}

// MarshalCSV renders records as a CSV document with a header row.
func MarshalCSV(records []model.StockRequest) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, rec := range records {
		row := []string{
			rec.ID.String(),
			rec.RequestID,
			rec.Origin,
			rec.Status,
			strconv.Itoa(rec.Version),
			rec.ItemType,
			rec.ContractorName,
			rec.InstallerName,
			strconv.Itoa(rec.RequestedQuantity),
			rec.ContractorNotes,
			rec.ManufacturerName,
			rec.BatchNumber,
			strconv.Itoa(rec.DispatchQuantity),
			formatTimePtr(rec.DispatchDate),
			formatIntPtr(rec.ApprovedQuantity),
			rec.ReviewerNotes,
			rec.DeclineReason,
			rec.ProofPhotoRef,
			rec.DispatchDocumentRef,
			formatTimePtr(rec.ApprovedAt),
			formatTimePtr(rec.ReceivedAt),
			rec.CreatedAt.Format(time.RFC3339Nano),
			rec.UpdatedAt.Format(time.RFC3339Nano),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// UnmarshalCSV parses a document produced by MarshalCSV back into records.
func UnmarshalCSV(data []byte) ([]model.StockRequest, error) {
	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty export: missing header row")
	}
	if len(rows[0]) != len(csvHeader) {
		return nil, fmt.Errorf("unexpected column count %d, want %d", len(rows[0]), len(csvHeader))
	}

	records := make([]model.StockRequest, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (model.StockRequest, error) {
	var rec model.StockRequest
	var err error

	if rec.ID, err = uuid.Parse(row[0]); err != nil {
		return rec, fmt.Errorf("bad id: %w", err)
	}
	rec.RequestID = row[1]
	rec.Origin = row[2]
	rec.Status = row[3]
	if rec.Version, err = strconv.Atoi(row[4]); err != nil {
		return rec, fmt.Errorf("bad version: %w", err)
	}
	rec.ItemType = row[5]
	rec.ContractorName = row[6]
	rec.InstallerName = row[7]
	if rec.RequestedQuantity, err = strconv.Atoi(row[8]); err != nil {
		return rec, fmt.Errorf("bad requested_quantity: %w", err)
	}
	rec.ContractorNotes = row[9]
	rec.ManufacturerName = row[10]
	rec.BatchNumber = row[11]
	if rec.DispatchQuantity, err = strconv.Atoi(row[12]); err != nil {
		return rec, fmt.Errorf("bad dispatch_quantity: %w", err)
	}
	if rec.DispatchDate, err = parseTimePtr(row[13]); err != nil {
		return rec, fmt.Errorf("bad dispatch_date: %w", err)
	}
	if rec.ApprovedQuantity, err = parseIntPtr(row[14]); err != nil {
		return rec, fmt.Errorf("bad approved_quantity: %w", err)
	}
	rec.ReviewerNotes = row[15]
	rec.DeclineReason = row[16]
	rec.ProofPhotoRef = row[17]
	rec.DispatchDocumentRef = row[18]
	if rec.ApprovedAt, err = parseTimePtr(row[19]); err != nil {
		return rec, fmt.Errorf("bad approved_at: %w", err)
	}
	if rec.ReceivedAt, err = parseTimePtr(row[20]); err != nil {
		return rec, fmt.Errorf("bad received_at: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, row[21]); err != nil {
		return rec, fmt.Errorf("bad created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, row[22]); err != nil {
		return rec, fmt.Errorf("bad updated_at: %w", err)
	}
	return rec, nil
}

// MarshalXLSX renders the same export as a styled workbook for the manager
// dashboard download.
func MarshalXLSX(records []model.StockRequest) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Stock Requests"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"0072BC"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
		},
	})

	for col, title := range csvHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}
	lastCell, _ := excelize.CoordinatesToCellName(len(csvHeader), 1)
	_ = f.SetCellStyle(sheet, "A1", lastCell, headerStyle)

	for i, rec := range records {
		values := []interface{}{
			rec.ID.String(), rec.RequestID, rec.Origin, rec.Status, rec.Version, rec.ItemType,
			rec.ContractorName, rec.InstallerName, rec.RequestedQuantity, rec.ContractorNotes,
			rec.ManufacturerName, rec.BatchNumber, rec.DispatchQuantity, formatTimePtr(rec.DispatchDate),
			formatIntPtr(rec.ApprovedQuantity), rec.ReviewerNotes, rec.DeclineReason,
			rec.ProofPhotoRef, rec.DispatchDocumentRef,
			formatTimePtr(rec.ApprovedAt), formatTimePtr(rec.ReceivedAt),
			rec.CreatedAt.Format(time.RFC3339Nano), rec.UpdatedAt.Format(time.RFC3339Nano),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTimePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func parseIntPtr(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
