package forecast

import "errors"

var (
	// ErrAnalyticsUnavailable means the analytics source could not be queried.
	// It aborts the whole run.
	ErrAnalyticsUnavailable = errors.New("analytics source unavailable")

	// ErrIntentUnavailable means the intent store was unreachable at run start.
	ErrIntentUnavailable = errors.New("intent store unavailable")

	// ErrItemNotFound is returned when a single SKU is requested and the
	// analytics source has no row for it.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidItem marks an analytics row that failed validation or could
	// not be read. Runs skip such rows; single-item lookups report it.
	ErrInvalidItem = errors.New("invalid analytics row")

	// ErrNonFiniteInput marks a per-item row carrying NaN or Inf values.
	ErrNonFiniteInput = errors.New("non-finite numeric input")
)
