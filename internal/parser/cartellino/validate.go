package cartellino

import (
	"github.com/shopspring/decimal"

	"cartellino/internal/domain"
)

// workedHoursTolerance absorbs rounding from the packed-hours conversion.
var workedHoursTolerance = decimal.NewFromFloat(0.05)

// Validate sums the worked hours of days and compares the sum with the
// extracted worked-hours total. Without a total the result is never OK.
func Validate(days []domain.DayRecord, totals domain.Totals) domain.Validation {
	sum := decimal.Zero
	for i := range days {
		sum = sum.Add(decimal.NewFromFloat(days[i].HoursWorked))
	}
	v := domain.Validation{RowSum: sum.InexactFloat64()}

	total, ok := totals.Get(domain.TotalWorkedHours)
	if !ok {
		return v
	}
	diff := sum.Sub(decimal.NewFromFloat(total))
	d := diff.InexactFloat64()
	v.Total = &total
	v.Diff = &d
	v.IsOK = diff.Abs().LessThan(workedHoursTolerance)
	return v
}
