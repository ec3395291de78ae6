package frame

import (
	"fmt"
	"time"

	"github.com/go-gota/gota/series"

	apperrors "workoutcli/internal/errors"
)

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"
)

// DefaultLayouts are tried in order when no layouts are given
var DefaultLayouts = []string{
	"2006/01/02",
	dateLayout,
	"20060102",
	time.RFC3339,
	datetimeLayout,
	"01/02/2006",
}

// DatetimeOptions configure ToDatetime. With Coerce set, cells that match
// no layout become missing instead of failing the conversion.
type DatetimeOptions struct {
	Layouts []string
	Coerce  bool
}

// ToDatetime parses every cell of col as a date or timestamp. Surrounding
// quotes and whitespace are ignored. Values are stored as 2006-01-02, or
// 2006-01-02 15:04:05 when any value in the column carries a time of day.
func (d *Dataset) ToDatetime(col string, opts DatetimeOptions) (*Dataset, error) {
	column, err := d.column(col)
	if err != nil {
		return nil, err
	}
	if d.datetimes[col] {
		return d.clone(), nil
	}

	layouts := opts.Layouts
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}

	times := make([]time.Time, column.Len())
	present := make([]bool, column.Len())
	withClock := false
	for i := range times {
		e := column.Elem(i)
		if e.IsNA() {
			continue
		}
		raw := formatElement(e)
		t, err := parseDatetime(raw, layouts)
		if err != nil {
			if opts.Coerce {
				continue
			}
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("row %d of column %q: cannot parse %q as datetime", d.index[i], col, raw), err).
				WithContext("row", d.index[i])
		}
		times[i] = t
		present[i] = true
		if hasClock(t) {
			withClock = true
		}
	}

	cells := make([]string, len(times))
	for i, t := range times {
		if !present[i] {
			cells[i] = naMarker
			continue
		}
		cells[i] = formatDatetime(t, withClock)
	}

	out, err := d.withColumn(buildColumn(col, series.String, cells))
	if err != nil {
		return nil, err
	}
	out.datetimes[col] = true
	return out, nil
}

func parseDatetime(raw string, layouts []string) (time.Time, error) {
	s := trimCell(raw)
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no layouts to parse %q", s)
	}
	return time.Time{}, lastErr
}

func formatDatetime(t time.Time, withClock bool) string {
	if withClock {
		return t.Format(datetimeLayout)
	}
	return t.Format(dateLayout)
}

func hasClock(t time.Time) bool {
	return t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0
}

func hasClockColumn(column series.Series) bool {
	for i := 0; i < column.Len(); i++ {
		if e := column.Elem(i); !e.IsNA() {
			return len(e.String()) > len(dateLayout)
		}
	}
	return false
}

// canonicalLayout picks the storage layout matching a stored value
func canonicalLayout(s string) string {
	if len(s) > len(dateLayout) {
		return datetimeLayout
	}
	return dateLayout
}
