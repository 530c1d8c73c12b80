// Package confirm models the blocking prompts that gate destructive or
// financially consequential actions.
package confirm

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotConfirmed is matched by every RequiredError.
var ErrNotConfirmed = errors.New("action not confirmed")

// Confirmer asks the user to approve the action described by prompt.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Func adapts a function to Confirmer.
type Func func(ctx context.Context, prompt string) bool

func (f Func) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Static answers every prompt the same way.
type Static bool

func (s Static) Confirm(context.Context, string) bool { return bool(s) }

const (
	Yes Static = true
	No  Static = false
)

// RequiredError is returned when the user has not approved an action. Prompt
// is the question to show before retrying.
type RequiredError struct {
	Prompt string
}

func (e *RequiredError) Error() string {
	return "confirmation required: " + e.Prompt
}

func (e *RequiredError) Is(target error) bool { return target == ErrNotConfirmed }

// Ask returns a RequiredError unless c approves prompt.
func Ask(ctx context.Context, c Confirmer, prompt string) error {
	if c != nil && c.Confirm(ctx, prompt) {
		return nil
	}
	return &RequiredError{Prompt: prompt}
}
