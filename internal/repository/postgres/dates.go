package postgres

import "time"

// dateParam formats t as a plain calendar date for DATE columns. Passing a
// time.Time would let the session time zone shift the stored day.
func dateParam(t time.Time) string {
	return t.Format("2006-01-02")
}

func nullDateParam(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return dateParam(*t)
}
