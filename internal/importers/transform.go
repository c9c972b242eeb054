package importers

import (
	"math"
	"strconv"
	"strings"

	"github.com/opicprep/trainer/internal/entities"
)

// Skip reasons reported per row.
const (
	reasonShortRow     = "row has fewer fields than the header requires"
	reasonMissingOrder = "missing or invalid order"
	reasonInvalidLevel = "level must be intermediate or advanced"
	reasonMissingTopic = "missing topic"
	reasonMissingText  = "missing question"
	reasonMissingType  = "missing question_type"
	reasonMissingStyle = "missing style"
)

// Transformer validates and normalizes the data rows of one sheet.
type Transformer struct {
	columns      *ColumnMap
	comboFromCol bool
}

func NewTransformer(columns *ColumnMap, policy ComboKeyPolicy) *Transformer {
	return &Transformer{
		columns:      columns,
		comboFromCol: policy.useColumn(columns.HasComboKey()),
	}
}

// Transform converts one row into a question. A non-empty reason means the
// row must be skipped.
func (t *Transformer) Transform(fields []string) (*entities.Question, string) {
	if len(fields) < t.columns.MinFields() {
		return nil, reasonShortRow
	}

	q := &entities.Question{
		Level:        entities.Level(lowerTrim(t.columns.Value(fields, FieldLevel))),
		Topic:        strings.TrimSpace(t.columns.Value(fields, FieldTopic)),
		QuestionType: lowerTrim(t.columns.Value(fields, FieldType)),
		Style:        lowerTrim(t.columns.Value(fields, FieldStyle)),
		Text:         strings.TrimSpace(t.columns.Value(fields, FieldQuestion)),
		Order:        parseOrder(t.columns.Value(fields, FieldOrder)),
	}

	switch {
	case q.Order < 1:
		return nil, reasonMissingOrder
	case !q.Level.Valid():
		return nil, reasonInvalidLevel
	case q.Topic == "":
		return nil, reasonMissingTopic
	case q.Text == "":
		return nil, reasonMissingText
	case q.QuestionType == "":
		return nil, reasonMissingType
	case q.Style == "":
		return nil, reasonMissingStyle
	}

	q.IsRandom = q.QuestionType == entities.QuestionTypeRandom
	if t.comboFromCol {
		q.ComboKey = normalizeComboKey(t.columns.Value(fields, FieldComboKey))
	} else {
		q.ComboKey = DeriveComboKey(q.Style, q.Topic, q.Order)
	}
	return q, ""
}

// parseOrder returns 0 for anything that is not a whole number. Spreadsheet
// cells formatted as decimals ("11.0") still count as whole numbers.
func parseOrder(raw string) int {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
