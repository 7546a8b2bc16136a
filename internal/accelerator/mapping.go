package accelerator

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/totegamma/coa/internal/utils"
)

// Kind tells the mapper how to render a column value.
type Kind int

const (
	KindAuto Kind = iota
	KindJSON
	KindDate
)

const dateLayout = "2006-01-02"

// Field maps one result column to the name exposed by the API.
type Field struct {
	Name   string
	Column string
	Kind   Kind
}

// Mapping is the ordered set of fields an endpoint exposes. An empty mapping
// passes every column through under its own name.
type Mapping []Field

// Row is a single mapped result row. Keys keep the mapping order.
type Row = utils.OrderedKVMap[any]

// Result is what a Runner hands back for a statement.
type Result struct {
	Columns      []string
	Rows         [][]any
	RowsAffected int64
}

// Apply converts raw rows into API rows.
func (m Mapping) Apply(res *Result) []Row {
	if res == nil {
		return []Row{}
	}

	index := make(map[string]int, len(res.Columns))
	for i, col := range res.Columns {
		index[col] = i
	}

	rows := make([]Row, 0, len(res.Rows))
	for _, values := range res.Rows {
		row := Row{}
		if len(m) == 0 {
			for i, col := range res.Columns {
				row.Put(col, convert(values[i], KindAuto))
			}
		} else {
			for _, f := range m {
				i, ok := index[f.Column]
				if !ok {
					continue
				}
				row.Put(f.Name, convert(values[i], f.Kind))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func convert(v any, kind Kind) any {
	switch kind {
	case KindJSON:
		switch t := v.(type) {
		case []byte:
			if json.Valid(t) {
				return json.RawMessage(bytes.Clone(t))
			}
			return string(t)
		case string:
			if json.Valid([]byte(t)) {
				return json.RawMessage(t)
			}
			return t
		}
	case KindDate:
		switch t := v.(type) {
		case time.Time:
			return t.Format(dateLayout)
		case []byte:
			return string(t)
		}
	default:
		switch t := v.(type) {
		case []byte:
			return string(t)
		case time.Time:
			return t.Format(time.RFC3339)
		}
	}
	return v
}
