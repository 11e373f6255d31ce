package leave

// =============================================================================
// BUSINESS-DAY CALCULATOR
// =============================================================================

// BusinessDays returns the number of Monday-Friday days in [start, end],
// inclusive of both endpoints. Deterministic, no side effects; operates on
// calendar dates only. Fails with InvalidRangeError when end < start.
//
// A same-day range counts as 1 when it falls on a weekday and 0 on a weekend.
// Zero-day ranges are legal here; the caller decides what to do with them.
func BusinessDays(start, end Date) (int, error) {
	if end.Before(start) {
		return 0, &InvalidRangeError{Start: start, End: end}
	}

	days := 0
	for cur := start; !cur.After(end); cur = cur.AddDays(1) {
		if cur.IsWorkday() {
			days++
		}
	}
	return days, nil
}
