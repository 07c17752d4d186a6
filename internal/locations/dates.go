package locations

import (
	"sort"
	"time"

	"github.com/tripper-app/tripper/internal/validation"
)

// datePart extracts the calendar date from a naive "YYYY-MM-DDTHH:mm" string
func datePart(naive string) string {
	if len(naive) < len(validation.DateLayout) {
		return ""
	}
	return naive[:len(validation.DateLayout)]
}

// isAccommodation reports whether the location uses the date-range schedule
func isAccommodation(loc *Location) bool {
	return loc.LocationType != nil && *loc.LocationType == LocationTypeAccommodation
}

// occursOn reports whether the location is scheduled on the given calendar
// date. Unscheduled locations never match. Accommodation locations with an
// end datetime match every date of the inclusive [DateTime, EndDateTime]
// range; all other locations match on the DateTime date only.
func occursOn(loc *Location, date string) bool {
	if loc.DateTime == nil || *loc.DateTime == "" {
		return false
	}

	start := datePart(*loc.DateTime)
	if start == "" {
		return false
	}

	if isAccommodation(loc) && loc.EndDateTime != nil && *loc.EndDateTime != "" {
		end := datePart(*loc.EndDateTime)
		if end != "" {
			return start <= date && date <= end
		}
	}

	return start == date
}

// uniqueDates computes the sorted, deduplicated set of calendar dates touched
// by any location, expanding accommodation date ranges day by day.
func uniqueDates(locs []Location) []string {
	seen := make(map[string]struct{})

	for i := range locs {
		loc := &locs[i]
		if loc.DateTime == nil || *loc.DateTime == "" {
			continue
		}

		start := datePart(*loc.DateTime)
		startDay, err := time.Parse(validation.DateLayout, start)
		if err != nil {
			continue
		}

		if isAccommodation(loc) && loc.EndDateTime != nil && *loc.EndDateTime != "" {
			end := datePart(*loc.EndDateTime)
			endDay, err := time.Parse(validation.DateLayout, end)
			if err == nil && !endDay.Before(startDay) {
				for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
					seen[day.Format(validation.DateLayout)] = struct{}{}
				}
				continue
			}
		}

		seen[start] = struct{}{}
	}

	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	return dates
}
