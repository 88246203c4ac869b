package game

import (
	"errors"
	"fmt"
	"time"
)

// Code tags every command failure so callers can branch on the kind of
// denial instead of parsing message strings.
type Code string

const (
	CodePlayerNotFound    Code = "player_not_found"
	CodeMoveTooFast       Code = "move_too_fast"
	CodeShootCooldown     Code = "shoot_cooldown"
	CodeInvalidDirection  Code = "invalid_direction"
	CodeTooManyBullets    Code = "too_many_bullets"
	CodeDeathCooldown     Code = "death_cooldown"
	CodeServerFull        Code = "server_full"
	CodeServerUnavailable Code = "server_unavailable"

	// Tournament overlay denials.
	CodeWhitelistReject   Code = "whitelist_reject"
	CodeRespawnsExhausted Code = "respawns_exhausted"
)

// Error is a tagged command failure. Remaining carries the wait time for
// cooldown denials and is zero otherwise.
type Error struct {
	Code      Code
	Remaining time.Duration
}

func (e *Error) Error() string {
	switch e.Code {
	case CodePlayerNotFound:
		return "Player not found"
	case CodeMoveTooFast:
		return "Move too fast"
	case CodeShootCooldown:
		return fmt.Sprintf("Cooldown: %.2fs", e.Remaining.Seconds())
	case CodeInvalidDirection:
		return "Invalid direction"
	case CodeTooManyBullets:
		return "Too many bullets"
	case CodeDeathCooldown:
		return fmt.Sprintf("Death cooldown: wait %.1fs", e.Remaining.Seconds())
	case CodeServerFull:
		return "Server full"
	case CodeServerUnavailable:
		return "Server unavailable"
	case CodeWhitelistReject:
		return "Not whitelisted"
	case CodeRespawnsExhausted:
		return "No respawns left"
	default:
		return string(e.Code)
	}
}

// Is makes errors.Is match on the code alone, so callers can compare against
// a bare &Error{Code: ...} sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewError builds a tagged failure without a cooldown.
func NewError(code Code) *Error {
	return &Error{Code: code}
}

// NewCooldownError builds a tagged failure carrying the remaining wait.
func NewCooldownError(code Code, remaining time.Duration) *Error {
	return &Error{Code: code, Remaining: remaining}
}

// CodeOf extracts the code from a command failure, or "" for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
