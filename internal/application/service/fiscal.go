package service

import "time"

// FiscalYearFunc maps a point in time to the fiscal year it belongs to
type FiscalYearFunc func(t time.Time) int

// NewFiscalYear returns the fiscal-year function for a year starting in startMonth.
// With a January start the fiscal year is the calendar year; otherwise a fiscal
// year is labelled by the calendar year in which it ends.
func NewFiscalYear(startMonth int) FiscalYearFunc {
	if startMonth < 1 || startMonth > 12 {
		startMonth = 1
	}
	return func(t time.Time) int {
		if startMonth == 1 || int(t.Month()) < startMonth {
			return t.Year()
		}
		return t.Year() + 1
	}
}
