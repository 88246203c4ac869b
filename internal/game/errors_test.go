package game

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"not found", NewError(CodePlayerNotFound), "Player not found"},
		{"move rate", NewError(CodeMoveTooFast), "Move too fast"},
		{"shoot cooldown", NewCooldownError(CodeShootCooldown, 500*time.Millisecond), "Cooldown: 0.50s"},
		{"death cooldown", NewCooldownError(CodeDeathCooldown, 9500*time.Millisecond), "Death cooldown: wait 9.5s"},
		{"server full", NewError(CodeServerFull), "Server full"},
		{"invalid direction", NewError(CodeInvalidDirection), "Invalid direction"},
		{"bullet cap", NewError(CodeTooManyBullets), "Too many bullets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorIsMatchesOnCode(t *testing.T) {
	err := NewCooldownError(CodeShootCooldown, 300*time.Millisecond)

	if !errors.Is(err, NewError(CodeShootCooldown)) {
		t.Error("errors.Is should match on code regardless of remaining")
	}
	if errors.Is(err, NewError(CodeMoveTooFast)) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewError(CodeServerFull)); got != CodeServerFull {
		t.Errorf("CodeOf = %q, want %q", got, CodeServerFull)
	}
	if got := CodeOf(fmt.Errorf("wrapped: %w", NewError(CodeTooManyBullets))); got != CodeTooManyBullets {
		t.Errorf("CodeOf through wrapping = %q, want %q", got, CodeTooManyBullets)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(foreign error) = %q, want empty", got)
	}
}
