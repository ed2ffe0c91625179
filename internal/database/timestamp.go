package database

import (
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Timestamp scans a computed time column. Postgres returns time.Time while
// SQLite returns aggregates such as MIN(date) as text in the driver's format.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", value)
	}
}

func (t *Timestamp) parse(s string) error {
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("failed to parse timestamp %q", s)
}
