package importers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opicprep/trainer/internal/entities"
)

func TestTransition(t *testing.T) {
	const (
		idle       = entities.ImportStatusIdle
		processing = entities.ImportStatusProcessing
		success    = entities.ImportStatusSuccess
		failed     = entities.ImportStatusError
	)

	allowed := [][2]entities.ImportStatus{
		{idle, processing},
		{processing, success},
		{processing, failed},
		{success, idle},
		{failed, idle},
	}
	for _, tr := range allowed {
		assert.NoError(t, Transition(tr[0], tr[1]), "%s → %s", tr[0], tr[1])
	}

	rejected := [][2]entities.ImportStatus{
		{idle, success},
		{idle, failed},
		{processing, idle},
		{processing, processing},
		{success, processing},
		{failed, processing},
		{success, failed},
	}
	for _, tr := range rejected {
		assert.ErrorIs(t, Transition(tr[0], tr[1]), ErrInvalidTransition, "%s → %s", tr[0], tr[1])
	}

	assert.True(t, IsTerminal(success))
	assert.True(t, IsTerminal(failed))
	assert.False(t, IsTerminal(processing))
}
