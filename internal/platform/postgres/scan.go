package postgres

import (
	"fmt"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
)

// Text layouts a driver may hand back for DATE and TIMESTAMP columns.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	domain.DateLayout,
}

// timeValue scans DATE and TIMESTAMP columns whether the driver returns
// time.Time (pgx) or text (SQLite).
type timeValue struct {
	Time time.Time
}

func (v *timeValue) Scan(src any) error {
	switch t := src.(type) {
	case nil:
		v.Time = time.Time{}
		return nil
	case time.Time:
		v.Time = t
		return nil
	case string:
		return v.parse(t)
	case []byte:
		return v.parse(string(t))
	default:
		return fmt.Errorf("cannot scan %T into a time value", src)
	}
}

func (v *timeValue) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			v.Time = t
			return nil
		}
	}
	return fmt.Errorf("unrecognised time value %q", s)
}

// Day returns the scanned value as a calendar day.
func (v timeValue) Day() time.Time {
	if v.Time.IsZero() {
		return time.Time{}
	}
	return domain.DateOf(v.Time)
}
