package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFormat               = errors.New("malformed version")
	ErrFieldMissing         = errors.New("recipe field missing")
	ErrRecipeNotFound       = errors.New("recipe not found")
	ErrUnknownRepository    = errors.New("unknown repository")
	ErrCloneFailed          = errors.New("clone failed")
	ErrPushRejected         = errors.New("push rejected")
	ErrGitCommand           = errors.New("git command failed")
	ErrGitCommandTimeout    = errors.New("git command timed out")
	ErrUnknownTag           = errors.New("unknown tag")
	ErrAmbiguousTag         = errors.New("ambiguous tag")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrNoVersionTags        = errors.New("no version tags")
	ErrInvalidConfig        = errors.New("invalid configuration")
)

// AmbiguousTagError is returned when more than one version tag points at the branch tip.
type AmbiguousTagError struct {
	Recipe     string
	Candidates []string
}

func (e *AmbiguousTagError) Error() string {
	return fmt.Sprintf("%s: %s has %d tags at HEAD (%s)",
		ErrAmbiguousTag, e.Recipe, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousTagError) Unwrap() error { return ErrAmbiguousTag }

// ConfirmationRequiredError is returned when resolving HEAD would create a tag the caller did not approve.
type ConfirmationRequiredError struct {
	Recipe string
	Tag    string
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("%s: creating %s on %s", ErrConfirmationRequired, e.Tag, e.Recipe)
}

func (e *ConfirmationRequiredError) Unwrap() error { return ErrConfirmationRequired }

// GitCommandError carries the failed git invocation and its stderr.
type GitCommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *GitCommandError) Unwrap() error { return e.Err }

// IsDecisionRequired reports whether err asks the operator for a choice rather than signalling a failure.
func IsDecisionRequired(err error) bool {
	return errors.Is(err, ErrAmbiguousTag) || errors.Is(err, ErrConfirmationRequired)
}
