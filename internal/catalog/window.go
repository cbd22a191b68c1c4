package catalog

import "time"

// dateLayout is the ISO calendar date format used across the catalog.
const dateLayout = "2006-01-02"

// Window returns the contiguous lookahead window: days+1 ISO dates
// starting at start. An unparsable start date falls back to today (UTC)
// rather than failing; the scheduler validates dates upstream.
func Window(start string, days int) []string {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		startDate = time.Now().UTC()
	}
	if days < 0 {
		days = 0
	}

	window := make([]string, 0, days+1)
	for offset := 0; offset <= days; offset++ {
		window = append(window, startDate.AddDate(0, 0, offset).Format(dateLayout))
	}
	return window
}
