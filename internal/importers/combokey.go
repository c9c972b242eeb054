package importers

import (
	"fmt"
	"strings"

	"github.com/opicprep/trainer/internal/entities"
)

// ComboKeyPolicy picks the single source of combo_key values for a sheet.
type ComboKeyPolicy string

const (
	// PolicyAuto uses the column when the header has one, otherwise the rules.
	PolicyAuto ComboKeyPolicy = "auto"
	// PolicyColumn only trusts the combo_key column.
	PolicyColumn ComboKeyPolicy = "column"
	// PolicyDerived only applies the rule table and ignores any column.
	PolicyDerived ComboKeyPolicy = "derived"
)

func ParseComboKeyPolicy(s string) (ComboKeyPolicy, error) {
	switch p := ComboKeyPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyAuto, nil
	case PolicyAuto, PolicyColumn, PolicyDerived:
		return p, nil
	default:
		return "", fmt.Errorf("%w: combo key policy %q", ErrInvalidOptions, s)
	}
}

// useColumn resolves the policy against a header.
func (p ComboKeyPolicy) useColumn(hasColumn bool) bool {
	switch p {
	case PolicyColumn:
		return true
	case PolicyDerived:
		return false
	default:
		return hasColumn
	}
}

// comboRules maps a style to the orders that form one multi-part prompt.
var comboRules = map[string]map[int]bool{
	entities.StyleRoleplay: {11: true, 12: true},
	entities.StyleAdvQues:  {13: true, 14: true, 15: true},
}

// DeriveComboKey applies the rule table. style must already be lower-cased.
func DeriveComboKey(style, topic string, order int) *string {
	if orders, ok := comboRules[style]; ok && orders[order] {
		key := fmt.Sprintf("%s_%s_01", style, topic)
		return &key
	}
	return nil
}

// normalizeComboKey maps empty and "null" cells to nil.
func normalizeComboKey(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}
