package importers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opicprep/trainer/internal/entities"
)

var standardHeader = []string{"level", "topic", "question_type", "style", "question", "order"}

func TestMapHeader(t *testing.T) {
	t.Run("column order does not matter", func(t *testing.T) {
		header := []string{"Order", " QUESTION ", "style", "Type", "topic", "Level"}
		m, err := MapHeader(header, "")
		require.NoError(t, err)

		row := []string{"3", "Q?", "describing", "random", "food", "advanced"}
		assert.Equal(t, "3", m.Value(row, FieldOrder))
		assert.Equal(t, "Q?", m.Value(row, FieldQuestion))
		assert.Equal(t, "random", m.Value(row, FieldType))
		assert.Equal(t, "advanced", m.Value(row, FieldLevel))
		assert.Equal(t, 6, m.MinFields())
		assert.False(t, m.HasComboKey())
	})

	t.Run("question_no alias and combo_key column", func(t *testing.T) {
		m, err := MapHeader([]string{"level", "topic", "question_type", "style", "question", "question_no", "combo_key"}, "")
		require.NoError(t, err)
		assert.True(t, m.HasComboKey())
		assert.Equal(t, 6, m.MinFields())
	})

	t.Run("missing columns are named", func(t *testing.T) {
		_, err := MapHeader([]string{"level", "topic", "question"}, "")
		require.ErrorIs(t, err, ErrMissingColumns)
		assert.Contains(t, err.Error(), "order|question_no")
		assert.Contains(t, err.Error(), "question_type|type")
		assert.Contains(t, err.Error(), "style")
	})

	t.Run("default style stands in for a style column", func(t *testing.T) {
		m, err := MapHeader([]string{"level", "topic", "type", "question", "order"}, "roleplay")
		require.NoError(t, err)
		assert.Equal(t, "roleplay", m.Value([]string{"advanced", "phone", "x", "q", "11"}, FieldStyle))
	})

	t.Run("prefix matches are not accepted", func(t *testing.T) {
		_, err := MapHeader([]string{"level_name", "topic", "type", "style", "question", "order"}, "")
		assert.ErrorIs(t, err, ErrMissingColumns)
	})
}

func newTestTransformer(t *testing.T, header []string, policy ComboKeyPolicy) *Transformer {
	t.Helper()
	m, err := MapHeader(header, "")
	require.NoError(t, err)
	return NewTransformer(m, policy)
}

func TestTransform(t *testing.T) {
	tr := newTestTransformer(t, standardHeader, PolicyAuto)

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		q, reason := tr.Transform([]string{" Intermediate ", "  Food ", "RANDOM", " Describing", "  What is your favorite dish?  ", " 3 "})
		require.Empty(t, reason)
		assert.Equal(t, entities.LevelIntermediate, q.Level)
		assert.Equal(t, "Food", q.Topic)
		assert.Equal(t, "random", q.QuestionType)
		assert.Equal(t, "describing", q.Style)
		assert.Equal(t, "What is your favorite dish?", q.Text)
		assert.Equal(t, 3, q.Order)
		assert.True(t, q.IsRandom)
		assert.Nil(t, q.ComboKey)
	})

	skipped := []struct {
		name   string
		row    []string
		reason string
	}{
		{"short row", []string{"advanced", "food", "random", "describing", "Q?"}, reasonShortRow},
		{"order zero", []string{"advanced", "food", "random", "describing", "Q?", "0"}, reasonMissingOrder},
		{"order unparsable", []string{"advanced", "food", "random", "describing", "Q?", "third"}, reasonMissingOrder},
		{"order fractional", []string{"advanced", "food", "random", "describing", "Q?", "2.5"}, reasonMissingOrder},
		{"order negative", []string{"advanced", "food", "random", "describing", "Q?", "-1"}, reasonMissingOrder},
		{"level outside enum", []string{"beginner", "food", "random", "describing", "Q?", "1"}, reasonInvalidLevel},
		{"missing topic", []string{"advanced", " ", "random", "describing", "Q?", "1"}, reasonMissingTopic},
		{"missing question", []string{"advanced", "food", "random", "describing", "", "1"}, reasonMissingText},
		{"missing type", []string{"advanced", "food", "", "describing", "Q?", "1"}, reasonMissingType},
		{"missing style", []string{"advanced", "food", "random", "", "Q?", "1"}, reasonMissingStyle},
	}
	for _, tt := range skipped {
		t.Run(tt.name, func(t *testing.T) {
			q, reason := tr.Transform(tt.row)
			assert.Nil(t, q)
			assert.Equal(t, tt.reason, reason)
		})
	}

	t.Run("level is case-insensitive", func(t *testing.T) {
		q, reason := tr.Transform([]string{"ADVANCED", "food", "habit", "describing", "Q?", "1"})
		require.Empty(t, reason)
		assert.Equal(t, entities.LevelAdvanced, q.Level)
		assert.False(t, q.IsRandom)
	})

	t.Run("spreadsheet decimal order", func(t *testing.T) {
		q, reason := tr.Transform([]string{"advanced", "phone", "rp", "roleplay", "Call a friend", "11.0"})
		require.Empty(t, reason)
		assert.Equal(t, 11, q.Order)
	})
}

func TestComboKeyPolicies(t *testing.T) {
	withCol := append(append([]string{}, standardHeader...), "combo_key")

	rows := map[string][]string{
		"roleplay 11": {"advanced", "phone", "rp", "roleplay", "Call to ask", "11", "custom_key"},
		"roleplay 12": {"advanced", "phone", "rp", "roleplay", "Follow up", "12", ""},
		"advques 14":  {"advanced", "news", "aq", "AdvQues", "Compare", "14", "NULL"},
		"other":       {"advanced", "news", "aq", "describing", "Describe", "13", "x"},
	}

	tests := []struct {
		name   string
		header []string
		policy ComboKeyPolicy
		want   map[string]*string
	}{
		{
			name:   "auto without column derives",
			header: standardHeader,
			policy: PolicyAuto,
			want: map[string]*string{
				"roleplay 11": ptr("roleplay_phone_01"),
				"roleplay 12": ptr("roleplay_phone_01"),
				"advques 14":  ptr("advques_news_01"),
				"other":       nil,
			},
		},
		{
			name:   "auto with column trusts column only",
			header: withCol,
			policy: PolicyAuto,
			want: map[string]*string{
				"roleplay 11": ptr("custom_key"),
				"roleplay 12": nil,
				"advques 14":  nil,
				"other":       ptr("x"),
			},
		},
		{
			name:   "derived ignores column",
			header: withCol,
			policy: PolicyDerived,
			want: map[string]*string{
				"roleplay 11": ptr("roleplay_phone_01"),
				"roleplay 12": ptr("roleplay_phone_01"),
				"advques 14":  ptr("advques_news_01"),
				"other":       nil,
			},
		},
		{
			name:   "column policy without column yields null",
			header: standardHeader,
			policy: PolicyColumn,
			want: map[string]*string{
				"roleplay 11": nil,
				"roleplay 12": nil,
				"advques 14":  nil,
				"other":       nil,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTransformer(t, tt.header, tt.policy)
			for name, row := range rows {
				q, reason := tr.Transform(row)
				require.Empty(t, reason, name)
				assert.Equal(t, tt.want[name], q.ComboKey, name)
			}
		})
	}
}

func TestParseComboKeyPolicy(t *testing.T) {
	p, err := ParseComboKeyPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyAuto, p)

	p, err = ParseComboKeyPolicy(" Derived ")
	require.NoError(t, err)
	assert.Equal(t, PolicyDerived, p)

	_, err = ParseComboKeyPolicy("merge")
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestDeriveComboKey(t *testing.T) {
	assert.Nil(t, DeriveComboKey("roleplay", "phone", 10))
	assert.Nil(t, DeriveComboKey("advques", "phone", 12))
	assert.Equal(t, "advques_travel_01", *DeriveComboKey("advques", "travel", 15))
}

func ptr(s string) *string { return &s }
