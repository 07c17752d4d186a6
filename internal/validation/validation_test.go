package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateTripName(t *testing.T) {
	require.NoError(t, ValidateTripName("Japan 2026"))
	require.ErrorIs(t, ValidateTripName("   "), ErrNameRequired)
	require.ErrorIs(t, ValidateTripName(strings.Repeat("x", 101)), ErrNameTooLong)
}

func TestValidateCategoryName(t *testing.T) {
	require.NoError(t, ValidateCategoryName("Food"))
	require.NoError(t, ValidateCategoryName("  ok  "))
	require.ErrorIs(t, ValidateCategoryName("x"), ErrCategoryNameLength)
	require.ErrorIs(t, ValidateCategoryName(" x "), ErrCategoryNameLength)
	require.ErrorIs(t, ValidateCategoryName(strings.Repeat("x", 31)), ErrCategoryNameLength)
}

func TestValidateNaiveDateTime(t *testing.T) {
	require.NoError(t, ValidateNaiveDateTime("2026-01-16T14:00"))
	require.ErrorIs(t, ValidateNaiveDateTime(""), ErrInvalidDateTime)
	require.ErrorIs(t, ValidateNaiveDateTime("2026-01-16"), ErrInvalidDateTime)
	require.ErrorIs(t, ValidateNaiveDateTime("2026-01-16T14:00:00Z"), ErrInvalidDateTime)
	require.ErrorIs(t, ValidateNaiveDateTime("16/01/2026 14:00"), ErrInvalidDateTime)
}

func TestValidateDate(t *testing.T) {
	require.NoError(t, ValidateDate("2026-01-16"))
	require.ErrorIs(t, ValidateDate("2026-1-16"), ErrInvalidDate)
	require.ErrorIs(t, ValidateDate("2026-01-16T14:00"), ErrInvalidDate)
}
