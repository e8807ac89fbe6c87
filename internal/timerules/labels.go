package timerules

import (
	"fmt"
	"time"
)

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish name of a month.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// MonthLabel renders a YYYY-MM prefix as e.g. "Diciembre 2025". Malformed input
// is returned unchanged.
func MonthLabel(month string) string {
	t, err := ParseMonth(month)
	if err != nil {
		return month
	}
	return fmt.Sprintf("%s %d", MonthName(t.Month()), t.Year())
}

// LongDate renders a YYYY-MM-DD key as e.g. "1 de Diciembre de 2025".
func LongDate(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%d de %s de %d", t.Day(), MonthName(t.Month()), t.Year())
}
