package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateMachine(t *testing.T) {
	sm := NewStateMachine()

	assert.True(t, sm.CanTransition("pending", "verified"))
	assert.True(t, sm.CanTransition("pending", "forged"))
	assert.True(t, sm.CanTransition("verified", "forged"))
	assert.True(t, sm.CanTransition("forged", "verified"))
	assert.True(t, sm.CanTransition("verified", "verified"))
	assert.False(t, sm.CanTransition("verified", "pending"))
	assert.False(t, sm.CanTransition("unknown", "verified"))

	assert.NoError(t, sm.Transition("pending", "forged"))
	assert.Error(t, sm.Transition("forged", "pending"))
	assert.Empty(t, sm.GetAllowedTransitions("archived"))
}
