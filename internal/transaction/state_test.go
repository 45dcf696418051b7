package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []Status{
	StatusStart, StatusPending, StatusSuccess, StatusFailureOnStart,
	StatusFailureOnFinish, StatusCancelled, StatusRefunded,
}

func TestCanTransition(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusStart: {StatusPending: true, StatusFailureOnStart: true},
		StatusPending: {
			StatusSuccess: true, StatusFailureOnFinish: true,
			StatusCancelled: true, StatusRefunded: true,
		},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[from][to]
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.False(t, CanTransition("unknown", StatusPending))
}

func TestStatus_IsTerminal(t *testing.T) {
	t.Run("Terminal", func(t *testing.T) {
		for _, s := range []Status{StatusSuccess, StatusFailureOnStart, StatusFailureOnFinish, StatusCancelled, StatusRefunded} {
			assert.True(t, s.IsTerminal(), s)
		}
	})

	t.Run("InFlight", func(t *testing.T) {
		assert.False(t, StatusStart.IsTerminal())
		assert.False(t, StatusPending.IsTerminal())
	})

	t.Run("Unknown", func(t *testing.T) {
		assert.False(t, Status("paid").Valid())
		assert.False(t, Status("paid").IsTerminal())
	})
}
