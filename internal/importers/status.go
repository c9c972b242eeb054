package importers

import (
	"fmt"

	"github.com/opicprep/trainer/internal/entities"
)

// transitions lists the allowed next states of an import run. There is no
// path from error back to processing: the user re-initiates from idle.
var transitions = map[entities.ImportStatus][]entities.ImportStatus{
	entities.ImportStatusIdle:       {entities.ImportStatusProcessing},
	entities.ImportStatusProcessing: {entities.ImportStatusSuccess, entities.ImportStatusError},
	entities.ImportStatusSuccess:    {entities.ImportStatusIdle},
	entities.ImportStatusError:      {entities.ImportStatusIdle},
}

// Transition returns ErrInvalidTransition unless from → to is allowed.
func Transition(from, to entities.ImportStatus) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
}

// IsTerminal reports whether a run in status s has finished.
func IsTerminal(s entities.ImportStatus) bool {
	return s == entities.ImportStatusSuccess || s == entities.ImportStatusError
}
