package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssertionStatusRunStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   AssertionStatus
		want RunStatus
	}{
		{in: AssertionPassed, want: RunStatusPassed},
		{in: AssertionFailed, want: RunStatusFailed},
		{in: AssertionSkipped, want: RunStatusSkipped},
		{in: AssertionPending, want: RunStatusSkipped},
		{in: AssertionTodo, want: RunStatusSkipped},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.in), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.in.RunStatus())
		})
	}
}
