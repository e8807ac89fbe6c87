package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/meal-roster/internal/roster"
)

func readBack(t *testing.T, wb *Workbook) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))
	require.NoError(t, wb.Close())
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestDayWorkbook(t *testing.T) {
	t.Parallel()

	zone := time.FixedZone("ART", -3*60*60)
	at := time.Date(2025, time.December, 1, 12, 30, 0, 0, time.UTC)
	lunch := []roster.Entrant{
		{ID: "1", Name: "Pago Uno", Category: roster.CategoryPayingGuest, Rank: roster.RankCabo, RegisteredAt: at},
		{ID: "2", Name: "Residente Uno", Category: roster.CategoryResident, Rank: roster.RankSuboficialMayor, ExternalID: "4411", Notes: "celíaco", RegisteredAt: at},
		{ID: "3", Name: "Sin Categoria", Category: "visitante", RegisteredAt: at},
	}
	dinner := []roster.Entrant{
		{ID: "4", Name: "Coae Uno", Category: roster.CategoryExternalStaff, Rank: roster.RankCaboPrimero, RegisteredAt: at},
	}

	wb, err := DayWorkbook("2025-12-01", lunch, dinner, zone)
	require.NoError(t, err)
	assert.Equal(t, "Racionamiento_2025-12-01.xlsx", wb.Filename)
	assert.Equal(t, []string{"Almuerzo", "Cena", "Resumen"}, wb.Sheets())

	f := readBack(t, wb)

	rows, err := f.GetRows("Almuerzo")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Fecha", "Categoría", "Grado", "Nombre", "N° ID", "Observaciones", "Hora"}, rows[0])
	assert.Equal(t, "── RESIDENTES ──", rows[1][1])
	assert.Equal(t, []string{"2025-12-01", "", "Suboficial Mayor", "Residente Uno", "4411", "celíaco", "09:30"}, rows[2])
	assert.Equal(t, "── ABONAN EN EL MOMENTO ──", rows[3][1])
	assert.Equal(t, "Pago Uno", rows[4][3])
	assert.Equal(t, "-", rows[4][4])

	rows, err = f.GetRows("Cena")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "── COAE (TURNO OPERADOR) ──", rows[1][1])

	rows, err = f.GetRows("Resumen")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Comida", "Residentes", "COAE", "Abonan", "Total"},
		{"Almuerzo", "1", "0", "1", "3"},
		{"Cena", "0", "1", "0", "1"},
		{"TOTAL", "1", "1", "1", "4"},
	}, rows)
}

func TestMonthWorkbook(t *testing.T) {
	t.Parallel()

	wb, err := MonthWorkbook("2025-12", []DayTotals{
		{Date: "2025-12-03", Lunch: 12, Dinner: 9, Total: 21},
		{Date: "2025-12-01", Lunch: 10, Dinner: 8, Total: 18},
	})
	require.NoError(t, err)
	assert.Equal(t, "Historial_2025-12.xlsx", wb.Filename)

	rows, err := readBack(t, wb).GetRows("Resumen Mensual")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Fecha", "Almuerzos", "Cenas", "Total Día"},
		{"2025-12-03", "12", "9", "21"},
		{"2025-12-01", "10", "8", "18"},
		{"TOTAL", "22", "17", "39"},
	}, rows)
}

func TestStatisticsWorkbook(t *testing.T) {
	t.Parallel()

	stats := roster.Statistics{
		Lunch:  roster.MealStats{ResidentCount: 5, ExternalStaffCount: 2, PayingGuestCount: 1, Total: 8},
		Dinner: roster.MealStats{ResidentCount: 3, Total: 4},
	}
	wb, err := StatisticsWorkbook("2025-12-01", stats)
	require.NoError(t, err)
	assert.Equal(t, "Estadisticas_2025-12-01.xlsx", wb.Filename)

	rows, err := readBack(t, wb).GetRows("Estadísticas")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"TOTAL", "8", "2", "1", "12"}, rows[3])
}
