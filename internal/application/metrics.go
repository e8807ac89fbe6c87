package application

import "github.com/example/meal-roster/internal/roster"

// MetricsRecorder receives domain events worth counting.
type MetricsRecorder interface {
	EntrantsAdded(source string, meal roster.Meal, count int)
	EntrantRemoved(meal roster.Meal)
	EntrantUpdated(meal roster.Meal)
	AccessCodeGenerated(source CodeSource)
	LoginAttempt(role Role, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) EntrantsAdded(string, roster.Meal, int) {}
func (noopMetrics) EntrantRemoved(roster.Meal)             {}
func (noopMetrics) EntrantUpdated(roster.Meal)             {}
func (noopMetrics) AccessCodeGenerated(CodeSource)         {}
func (noopMetrics) LoginAttempt(Role, string)              {}
