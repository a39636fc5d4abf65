package reportsvc

import (
	"context"
	"fmt"

	"bikerental/model"

	"github.com/xuri/excelize/v2"
)

const sheet = "Reservations"

var header = []string{
	"ID", "Customer", "Email", "Bike", "Type", "Start", "End",
	"Hours", "Amount", "Status", "Payment", "Method", "Pickup", "Dropoff",
}

type Reservations interface {
	List(ctx context.Context, f model.ReservationFilter) ([]model.ReservationView, error)
}

type Service interface {
	// ExportReservations renders the filtered reservation list as an XLSX workbook.
	ExportReservations(ctx context.Context, f model.ReservationFilter) ([]byte, error)
}

type service struct{ r Reservations }

func New(r Reservations) Service { return &service{r: r} }

func (s *service) ExportReservations(ctx context.Context, filter model.ReservationFilter) ([]byte, error) {
	rows, err := s.r.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return nil, err
	}

	var total float64
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		line := []any{
			r.ID,
			r.UserName,
			r.UserEmail,
			r.BikeName,
			r.BikeType,
			r.StartTime.UTC().Format("2006-01-02 15:04"),
			r.EndTime.UTC().Format("2006-01-02 15:04"),
			r.TotalHours,
			r.TotalAmount,
			string(r.Status),
			deref(r.PaymentStatus),
			deref(r.PaymentMethod),
			r.PickupLocation,
			r.DropoffLocation,
		}
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return nil, err
		}
		if countsAsPaid(r) {
			total += r.TotalAmount
		}
	}

	// totals row under the data
	totalRow := len(rows) + 3
	label, _ := excelize.CoordinatesToCellName(8, totalRow)
	value, _ := excelize.CoordinatesToCellName(9, totalRow)
	if err := f.SetCellValue(sheet, label, "Paid total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheet, value, total); err != nil {
		return nil, err
	}

	if err := f.SetColWidth(sheet, "B", "E", 20); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "F", "G", 18); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "M", "N", 28); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// countsAsPaid is true for paid reservations that still stand; a booking
// cancelled after payment is not revenue.
func countsAsPaid(r model.ReservationView) bool {
	if r.PaymentStatus == nil {
		return false
	}
	return r.Status == model.ReservationConfirmed || r.Status == model.ReservationCompleted
}
