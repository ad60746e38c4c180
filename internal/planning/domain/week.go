package domain

import "fmt"

// WeekBucket is one contiguous slice of a date range, at most seven days long.
type WeekBucket struct {
	Index int          `json:"index"`
	Start CalendarDate `json:"start"`
	End   CalendarDate `json:"end"`
	Label string       `json:"label"`
}

// Contains reports whether d falls inside the bucket, inclusive on both ends.
func (w WeekBucket) Contains(d CalendarDate) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns the number of days covered by the bucket.
func (w WeekBucket) Days() int {
	return int(w.End.In(nil).Sub(w.Start.In(nil)).Hours()/24) + 1
}

// GenerateWeeks splits [start, end] into consecutive seven-day buckets.
// The last bucket is clamped to end.
func GenerateWeeks(start, end CalendarDate) ([]WeekBucket, error) {
	if start.After(end) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}

	var weeks []WeekBucket
	for cur, idx := start, 0; !cur.After(end); cur, idx = cur.AddDays(7), idx+1 {
		last := cur.AddDays(6)
		if last.After(end) {
			last = end
		}
		weeks = append(weeks, WeekBucket{
			Index: idx,
			Start: cur,
			End:   last,
			Label: fmt.Sprintf("Week %d", idx+1),
		})
	}
	return weeks, nil
}

// WeekIndexOf returns the index of the bucket containing d, or -1.
func WeekIndexOf(weeks []WeekBucket, d CalendarDate) int {
	for _, w := range weeks {
		if w.Contains(d) {
			return w.Index
		}
	}
	return -1
}
