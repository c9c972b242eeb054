package importers

import "github.com/opicprep/trainer/internal/entities"

// duplicateFilter remembers natural keys already in the store or already
// accepted from the current file.
type duplicateFilter struct {
	seen map[entities.QuestionKey]struct{}
}

func newDuplicateFilter(existing []entities.QuestionKey) *duplicateFilter {
	f := &duplicateFilter{seen: make(map[entities.QuestionKey]struct{}, len(existing))}
	for _, k := range existing {
		f.seen[k] = struct{}{}
	}
	return f
}

// Admit returns false if q's key was seen before, and records it otherwise.
func (f *duplicateFilter) Admit(q *entities.Question) bool {
	key := q.Key()
	if _, ok := f.seen[key]; ok {
		return false
	}
	f.seen[key] = struct{}{}
	return true
}
