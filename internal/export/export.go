// Package export renders roster data as xlsx workbooks. It only formats data the
// services already aggregated.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/meal-roster/internal/roster"
)

// ContentType is the MIME type of every generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetLunch      = "Almuerzo"
	sheetDinner     = "Cena"
	sheetSummary    = "Resumen"
	sheetMonth      = "Resumen Mensual"
	sheetStatistics = "Estadísticas"
)

var (
	entrantHeader = []any{"Fecha", "Categoría", "Grado", "Nombre", "N° ID", "Observaciones", "Hora"}
	entrantWidths = []float64{12, 30, 22, 25, 10, 30, 10}

	categoryHeadings = map[roster.Category]string{
		roster.CategoryResident:      "── RESIDENTES ──",
		roster.CategoryExternalStaff: "── COAE (TURNO OPERADOR) ──",
		roster.CategoryPayingGuest:   "── ABONAN EN EL MOMENTO ──",
	}
)

// Workbook is a rendered spreadsheet with its download name.
type Workbook struct {
	Filename string
	file     *excelize.File
}

// Write streams the workbook to w.
func (wb *Workbook) Write(w io.Writer) error {
	return wb.file.Write(w)
}

// Close releases temporary resources held by the workbook.
func (wb *Workbook) Close() error {
	return wb.file.Close()
}

// Sheets lists the sheet names in order.
func (wb *Workbook) Sheets() []string {
	return wb.file.GetSheetList()
}

// DayTotals is one row of the monthly summary.
type DayTotals struct {
	Date   string
	Lunch  int
	Dinner int
	Total  int
}

// DayWorkbook renders the lunch and dinner lists of date grouped by category,
// plus a per-category summary. Registration times are shown in loc.
func DayWorkbook(date string, lunch, dinner []roster.Entrant, loc *time.Location) (*Workbook, error) {
	if loc == nil {
		loc = time.Local
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetLunch); err != nil {
		return nil, closeOnError(f, err)
	}
	if err := writeEntrantSheet(f, sheetLunch, date, lunch, loc); err != nil {
		return nil, closeOnError(f, err)
	}
	if _, err := f.NewSheet(sheetDinner); err != nil {
		return nil, closeOnError(f, err)
	}
	if err := writeEntrantSheet(f, sheetDinner, date, dinner, loc); err != nil {
		return nil, closeOnError(f, err)
	}

	lunchStats, dinnerStats := roster.Tally(lunch), roster.Tally(dinner)
	rows := [][]any{
		{"Comida", "Residentes", "COAE", "Abonan", "Total"},
		statsRow("Almuerzo", lunchStats),
		statsRow("Cena", dinnerStats),
		statsRow("TOTAL", sumStats(lunchStats, dinnerStats)),
	}
	if err := writeSheet(f, sheetSummary, rows); err != nil {
		return nil, closeOnError(f, err)
	}

	return &Workbook{Filename: fmt.Sprintf("Racionamiento_%s.xlsx", date), file: f}, nil
}

// MonthWorkbook renders one row per day of month followed by a TOTAL row.
func MonthWorkbook(month string, days []DayTotals) (*Workbook, error) {
	rows := make([][]any, 0, len(days)+2)
	rows = append(rows, []any{"Fecha", "Almuerzos", "Cenas", "Total Día"})

	var total DayTotals
	for _, day := range days {
		rows = append(rows, []any{day.Date, day.Lunch, day.Dinner, day.Total})
		total.Lunch += day.Lunch
		total.Dinner += day.Dinner
		total.Total += day.Total
	}
	rows = append(rows, []any{"TOTAL", total.Lunch, total.Dinner, total.Total})

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetMonth); err != nil {
		return nil, closeOnError(f, err)
	}
	if err := writeRows(f, sheetMonth, rows); err != nil {
		return nil, closeOnError(f, err)
	}
	return &Workbook{Filename: fmt.Sprintf("Historial_%s.xlsx", month), file: f}, nil
}

// StatisticsWorkbook renders the category counts of one day.
func StatisticsWorkbook(date string, stats roster.Statistics) (*Workbook, error) {
	rows := [][]any{
		{"Tipo", "Residentes", "COAE", "Pago", "Total"},
		statsRow("Almuerzo", stats.Lunch),
		statsRow("Cena", stats.Dinner),
		statsRow("TOTAL", sumStats(stats.Lunch, stats.Dinner)),
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetStatistics); err != nil {
		return nil, closeOnError(f, err)
	}
	if err := writeRows(f, sheetStatistics, rows); err != nil {
		return nil, closeOnError(f, err)
	}
	return &Workbook{Filename: fmt.Sprintf("Estadisticas_%s.xlsx", date), file: f}, nil
}

// writeEntrantSheet lays out entries by category, each group preceded by a heading row.
// Entrants without a known category are left out.
func writeEntrantSheet(f *excelize.File, sheet, date string, entries []roster.Entrant, loc *time.Location) error {
	rows := [][]any{entrantHeader}
	groups := roster.GroupByCategory(entries)
	for _, category := range roster.Categories {
		group := groups[category]
		if len(group) == 0 {
			continue
		}
		rows = append(rows, []any{"", categoryHeadings[category], "", "", "", "", ""})
		for _, e := range group {
			rows = append(rows, []any{
				date,
				"",
				rankLabel(e.Rank),
				e.Name,
				orDash(e.ExternalID),
				orDash(e.Notes),
				clockTime(e.RegisteredAt, loc),
			})
		}
	}

	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	for i, width := range entrantWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func statsRow(label string, stats roster.MealStats) []any {
	return []any{label, stats.ResidentCount, stats.ExternalStaffCount, stats.PayingGuestCount, stats.Total}
}

func sumStats(a, b roster.MealStats) roster.MealStats {
	return roster.MealStats{
		ResidentCount:      a.ResidentCount + b.ResidentCount,
		ExternalStaffCount: a.ExternalStaffCount + b.ExternalStaffCount,
		PayingGuestCount:   a.PayingGuestCount + b.PayingGuestCount,
		Total:              a.Total + b.Total,
	}
}

func rankLabel(rank roster.Rank) string {
	if rank == "" {
		return "-"
	}
	return rank.Label()
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func clockTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("15:04")
}

func closeOnError(f *excelize.File, err error) error {
	_ = f.Close()
	return err
}
