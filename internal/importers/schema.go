package importers

import (
	"fmt"
	"sort"
	"strings"
)

type Field string

const (
	FieldLevel    Field = "level"
	FieldTopic    Field = "topic"
	FieldType     Field = "question_type"
	FieldStyle    Field = "style"
	FieldQuestion Field = "question"
	FieldOrder    Field = "order"
	FieldComboKey Field = "combo_key"
)

// Accepted header names per field, compared after trimming and lower-casing.
var fieldHeaders = map[Field][]string{
	FieldLevel:    {"level"},
	FieldTopic:    {"topic"},
	FieldType:     {"question_type", "type"},
	FieldStyle:    {"style"},
	FieldQuestion: {"question"},
	FieldOrder:    {"order", "question_no"},
	FieldComboKey: {"combo_key"},
}

var requiredFields = []Field{FieldLevel, FieldTopic, FieldType, FieldStyle, FieldQuestion, FieldOrder}

// ColumnMap locates semantic fields in a sheet's rows.
type ColumnMap struct {
	index        map[Field]int
	defaultStyle string
	minFields    int
}

// MapHeader builds a ColumnMap from a header row. When defaultStyle is set, a
// missing style column is allowed and every row gets that style.
func MapHeader(header []string, defaultStyle string) (*ColumnMap, error) {
	headerIndex := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := headerIndex[key]; !dup {
			headerIndex[key] = i
		}
	}

	m := &ColumnMap{index: make(map[Field]int), defaultStyle: defaultStyle}
	for field, names := range fieldHeaders {
		for _, name := range names {
			if idx, ok := headerIndex[name]; ok {
				m.index[field] = idx
				break
			}
		}
	}

	var missing []string
	for _, field := range requiredFields {
		idx, ok := m.index[field]
		if !ok {
			if field == FieldStyle && defaultStyle != "" {
				continue
			}
			missing = append(missing, strings.Join(fieldHeaders[field], "|"))
			continue
		}
		if idx+1 > m.minFields {
			m.minFields = idx + 1
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return m, nil
}

// HasComboKey reports whether the header carried a combo_key column.
func (m *ColumnMap) HasComboKey() bool {
	_, ok := m.index[FieldComboKey]
	return ok
}

// MinFields is the number of fields a row needs to reach every required column.
func (m *ColumnMap) MinFields() int {
	return m.minFields
}

// Value returns the raw (untrimmed) cell for field, or "" when absent.
func (m *ColumnMap) Value(fields []string, field Field) string {
	if idx, ok := m.index[field]; ok && idx < len(fields) {
		return fields[idx]
	}
	if field == FieldStyle {
		return m.defaultStyle
	}
	return ""
}
