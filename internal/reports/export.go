package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hotdesk/internal/domain"
	"hotdesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter пишет отчёты по согласованиям в Excel.
type Exporter struct {
	requests   domain.RequestService
	exportPath string
	logger     zerolog.Logger
}

func NewExporter(requests domain.RequestService, exportPath string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		requests:   requests,
		exportPath: exportPath,
		logger:     logger.With().Str("component", "reports").Logger(),
	}
}

const (
	respondersSheet    = "Согласующие"
	cancellationsSheet = "Причины отмен"
)

// Start запускает ежедневную выгрузку отчёта в указанное время ("HH:MM").
func (e *Exporter) Start(ctx context.Context, schedule string) {
	var hour, minute int
	if _, err := fmt.Sscanf(schedule, "%d:%d", &hour, &minute); err != nil {
		e.logger.Error().Err(err).Str("schedule", schedule).Msg("invalid export schedule")
		return
	}

	timer := time.NewTimer(untilDaily(hour, minute))
	defer timer.Stop()

	e.logger.Info().Str("schedule", schedule).Msg("Report exporter started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if path, err := e.ExportWorkflowReport(ctx); err != nil {
				e.logger.Error().Err(err).Msg("scheduled export failed")
			} else {
				e.logger.Info().Str("path", path).Msg("scheduled export done")
			}
			timer.Reset(24 * time.Hour)
		}
	}
}

func untilDaily(hour, minute int) time.Duration {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

// ExportWorkflowReport собирает два листа: статистику согласующих и
// частоты причин отмен. Возвращает путь к созданному файлу.
func (e *Exporter) ExportWorkflowReport(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.exportPath, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	stats, err := e.requests.GetResponderStats(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting responder stats: %v", err)
	}
	reasons, err := e.requests.GetCancellationReasons(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting cancellation reasons: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeResponderSheet(f, stats); err != nil {
		return "", err
	}
	if err := e.writeCancellationSheet(f, reasons); err != nil {
		return "", err
	}
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("workflow_report_%s.xlsx", time.Now().Format("2006-01-02"))
	filePath := filepath.Join(e.exportPath, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}

func (e *Exporter) writeResponderSheet(f *excelize.File, stats []models.ResponderStats) error {
	index, err := f.NewSheet(respondersSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"Согласующий", "Одобрено", "Отклонено", "Просрочено", "В работе"}
	writeHeaderRow(f, respondersSheet, headers)

	for i, s := range stats {
		row := i + 2
		setCell(f, respondersSheet, 1, row, fmt.Sprintf("id:%d", s.AssigneeID))
		setCell(f, respondersSheet, 2, row, s.Approved)
		setCell(f, respondersSheet, 3, row, s.Rejected)
		setCell(f, respondersSheet, 4, row, s.Escalated)
		setCell(f, respondersSheet, 5, row, s.Pending)
	}

	_ = f.SetColWidth(respondersSheet, "A", "A", 20)
	_ = f.SetColWidth(respondersSheet, "B", "E", 12)
	return nil
}

func (e *Exporter) writeCancellationSheet(f *excelize.File, reasons []models.CancellationReason) error {
	if _, err := f.NewSheet(cancellationsSheet); err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}

	writeHeaderRow(f, cancellationsSheet, []string{"Причина", "Количество"})

	for i, r := range reasons {
		row := i + 2
		setCell(f, cancellationsSheet, 1, row, r.Reason)
		setCell(f, cancellationsSheet, 2, row, r.Count)
	}

	_ = f.SetColWidth(cancellationsSheet, "A", "A", 50)
	_ = f.SetColWidth(cancellationsSheet, "B", "B", 12)
	return nil
}

func writeHeaderRow(f *excelize.File, sheetName string, headers []string) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func setCell(f *excelize.File, sheetName string, col, row int, value any) {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	_ = f.SetCellValue(sheetName, cell, value)
}
