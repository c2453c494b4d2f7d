package orders

import "time"

// FilterByDateRange returns the lines whose purchase timestamp falls on a
// calendar day inside the inclusive [start, end] range. Time-of-day on the
// bounds is ignored; a purchase at 23:59 on the end date is still in range.
// Range validity (start <= end, within dataset bounds) is the caller's job.
func FilterByDateRange(lines []OrderLine, start, end time.Time) []OrderLine {
	startDay := DayOf(start)
	endDay := DayOf(end)

	out := make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		day := DayOf(line.PurchaseTimestamp)
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		out = append(out, line)
	}
	return out
}
