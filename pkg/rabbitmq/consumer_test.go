package rabbitmq

import (
	"errors"
	"fmt"
	"testing"
)

type terminalTestError struct{ terminal bool }

func (e *terminalTestError) Error() string  { return "test error" }
func (e *terminalTestError) Terminal() bool { return e.terminal }

func TestIsTerminal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"terminal", &terminalTestError{terminal: true}, true},
		{"classified retryable", &terminalTestError{terminal: false}, false},
		{"wrapped terminal", fmt.Errorf("handler: %w", &terminalTestError{terminal: true}), true},
		{"wrapped retryable", fmt.Errorf("handler: %w", &terminalTestError{terminal: false}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTerminal(tc.err); got != tc.want {
				t.Fatalf("IsTerminal(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
