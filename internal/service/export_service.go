package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/reprint-api/internal/models"
	"github.com/noah-isme/reprint-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(r export.Receipt) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

var orderCSVHeaders = []string{"Order ID", "Owner", "File", "Status", "Upload Date", "Details", "Quantity", "Price", "Pickup", "Issues"}

// ExportService renders dashboard downloads.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers use the defaults.
func NewExportService(logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// OrdersCSV renders an order list as CSV.
func (s *ExportService) OrdersCSV(orders []models.Order) (*ExportFile, error) {
	rows := make([]map[string]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, map[string]string{
			"Order ID":    o.ID,
			"Owner":       o.Owner,
			"File":        o.FileName,
			"Status":      string(o.Status),
			"Upload Date": o.UploadDate,
			"Details":     o.Details,
			"Quantity":    strconv.Itoa(o.Specs.Quantity),
			"Price":       strconv.Itoa(o.Price),
			"Pickup":      o.EstimatedPickup,
			"Issues":      strings.Join(o.Issues, "; "),
		})
	}
	body, err := s.csv.Render(export.Dataset{Headers: orderCSVHeaders, Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("render orders csv: %w", err)
	}
	s.logger.Debug("orders exported", zap.Int("rows", len(rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("orders_%s.csv", s.now().UTC().Format("20060102_150405")),
		ContentType: "text/csv; charset=utf-8",
		Body:        body,
	}, nil
}

// Receipt renders a single order as a PDF receipt.
func (s *ExportService) Receipt(order models.Order) (*ExportFile, error) {
	fields := [][2]string{
		{"Order ID", order.ID},
		{"Owner", order.Owner},
		{"File", order.FileName},
		{"Status", string(order.Status)},
		{"Uploaded", order.UploadDate},
		{"Size", string(order.Specs.Size)},
		{"Paper", string(order.Specs.Paper)},
		{"Quantity", strconv.Itoa(order.Specs.Quantity)},
		{"Total (NT$)", strconv.Itoa(order.Price)},
		{"Pickup", order.EstimatedPickup},
	}
	timeline := make([]map[string]string, 0, len(order.Timeline))
	for i, step := range order.Timeline {
		state := "pending"
		switch {
		case step.IsCurrent:
			state = "current"
		case step.IsCompleted:
			state = "done"
		}
		timeline = append(timeline, map[string]string{
			"Step":  strconv.Itoa(i + 1),
			"Time":  step.Time,
			"State": state,
		})
	}
	body, err := s.pdf.Render(export.Receipt{
		Title:  "Re:Print Order Receipt",
		Fields: fields,
		Lines:  export.Dataset{Headers: []string{"Step", "Time", "State"}, Rows: timeline},
		Footer: fmt.Sprintf("Generated %s", s.now().UTC().Format(time.RFC3339)),
	})
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return &ExportFile{
		Filename:    sanitizeFilename(order.ID) + ".pdf",
		ContentType: "application/pdf",
		Body:        body,
	}, nil
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
