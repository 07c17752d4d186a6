package locations

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestOccursOn_SingleInstant(t *testing.T) {
	loc := &Location{DateTime: strptr("2026-01-16T09:30")}

	require.True(t, occursOn(loc, "2026-01-16"))
	require.False(t, occursOn(loc, "2026-01-17"))
}

func TestOccursOn_UnscheduledNeverMatches(t *testing.T) {
	require.False(t, occursOn(&Location{}, "2026-01-16"))
	require.False(t, occursOn(&Location{DateTime: strptr("")}, "2026-01-16"))
}

func TestOccursOn_AccommodationRangeInclusive(t *testing.T) {
	loc := &Location{
		LocationType: strptr(LocationTypeAccommodation),
		DateTime:     strptr("2026-01-16T14:00"),
		EndDateTime:  strptr("2026-01-18T11:00"),
	}

	require.False(t, occursOn(loc, "2026-01-15"))
	require.True(t, occursOn(loc, "2026-01-16"))
	require.True(t, occursOn(loc, "2026-01-17"))
	require.True(t, occursOn(loc, "2026-01-18"))
	require.False(t, occursOn(loc, "2026-01-19"))
}

func TestOccursOn_RangeIgnoredForNonAccommodation(t *testing.T) {
	loc := &Location{
		LocationType: strptr("attraction"),
		DateTime:     strptr("2026-01-16T14:00"),
		EndDateTime:  strptr("2026-01-18T11:00"),
	}

	require.True(t, occursOn(loc, "2026-01-16"))
	require.False(t, occursOn(loc, "2026-01-17"))
}

func TestUniqueDates_ExpandsAccommodationRanges(t *testing.T) {
	locs := []Location{
		{DateTime: strptr("2026-01-16T09:30")},
		{
			LocationType: strptr(LocationTypeAccommodation),
			DateTime:     strptr("2026-01-16T14:00"),
			EndDateTime:  strptr("2026-01-18T11:00"),
		},
		{DateTime: strptr("2026-01-20T12:00")},
		{}, // unscheduled, excluded
	}

	require.Equal(t, []string{"2026-01-16", "2026-01-17", "2026-01-18", "2026-01-20"}, uniqueDates(locs))
}

func TestUniqueDates_CrossesMonthBoundary(t *testing.T) {
	locs := []Location{
		{
			LocationType: strptr(LocationTypeAccommodation),
			DateTime:     strptr("2026-01-31T14:00"),
			EndDateTime:  strptr("2026-02-02T11:00"),
		},
	}

	require.Equal(t, []string{"2026-01-31", "2026-02-01", "2026-02-02"}, uniqueDates(locs))
}

func TestUniqueDates_InvertedRangeFallsBackToStart(t *testing.T) {
	locs := []Location{
		{
			LocationType: strptr(LocationTypeAccommodation),
			DateTime:     strptr("2026-01-18T14:00"),
			EndDateTime:  strptr("2026-01-16T11:00"),
		},
	}

	require.Equal(t, []string{"2026-01-18"}, uniqueDates(locs))
}

func TestUniqueDates_Empty(t *testing.T) {
	require.Empty(t, uniqueDates(nil))
}
