package table

import (
	"fmt"
	"time"

	"bskyscraper/pkg/models"
)

// timestampLayouts are tried in order when parsing created_at
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

// Table is the tabular form of a collection run. Columns are the union of
// the fields present across records in first-seen order. Each row has one
// cell per column; a record lacking a column gets an empty cell.
type Table struct {
	Columns   []string
	Rows      [][]string
	CreatedAt []time.Time

	records []models.PostRecord
}

// FromRecords builds a Table. created_at cells are parsed into CreatedAt and
// rewritten in RFC 3339; a value that does not parse fails the whole
// conversion. With no records the table carries emptyColumns as its header.
func FromRecords(records []models.PostRecord, emptyColumns []string) (*Table, error) {
	t := &Table{records: records}

	if len(records) == 0 {
		t.Columns = append([]string(nil), emptyColumns...)
		return t, nil
	}

	index := make(map[string]int)
	rows := make([]map[string]string, len(records))
	for i, rec := range records {
		row := make(map[string]string)
		for _, f := range rec.Fields() {
			if _, seen := index[f.Name]; !seen {
				index[f.Name] = len(t.Columns)
				t.Columns = append(t.Columns, f.Name)
			}
			row[f.Name] = f.Value
		}
		rows[i] = row
	}

	t.Rows = make([][]string, len(records))
	t.CreatedAt = make([]time.Time, len(records))
	for i, row := range rows {
		ts, err := ParseTimestamp(row[models.ColCreatedAt])
		if err != nil {
			return nil, fmt.Errorf("row %d (post %s): %w", i, records[i].PostID, err)
		}
		t.CreatedAt[i] = ts
		row[models.ColCreatedAt] = ts.Format(time.RFC3339Nano)

		cells := make([]string, len(t.Columns))
		for name, col := range index {
			cells[col] = row[name]
		}
		t.Rows[i] = cells
	}

	return t, nil
}

// ParseTimestamp parses an ISO 8601 timestamp. Values without a zone are
// taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable created_at %q", s)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns the records the table was built from
func (t *Table) Records() []models.PostRecord {
	return t.records
}

// HasColumn reports whether name is one of the table's columns
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}
