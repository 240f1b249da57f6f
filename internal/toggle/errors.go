package toggle

import (
	"errors"
	"fmt"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

// NotSupportedError reports that toggling does not apply to an entry.
// Retrying will not help.
type NotSupportedError struct {
	Identity catalog.Identity
	Reason   string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("cannot toggle %s: %s", e.Identity, e.Reason)
}

// IsNotSupported reports whether err is a NotSupportedError.
func IsNotSupported(err error) bool {
	var target *NotSupportedError
	return errors.As(err, &target)
}

// Reason classifies a FailedError.
type Reason string

const (
	// ReasonAmbiguous: more than one artifact matches the entry.
	ReasonAmbiguous Reason = "ambiguous"
	// ReasonCollision: the destination already exists.
	ReasonCollision Reason = "collision"
	// ReasonMissing: no artifact matches the entry.
	ReasonMissing Reason = "missing"
	// ReasonInconsistent: the artifact is not where the entry's status says.
	ReasonInconsistent Reason = "inconsistent"
	// ReasonInvalidDocument: a config document cannot be parsed or rewritten.
	ReasonInvalidDocument Reason = "invalid document"
	// ReasonIO: the filesystem operation itself failed.
	ReasonIO Reason = "io"
)

// FailedError reports a toggle that applied to the entry but could not be
// carried out. Nothing was modified.
type FailedError struct {
	Identity catalog.Identity
	Reason   Reason
	Detail   string
	Err      error
}

func (e *FailedError) Error() string {
	msg := fmt.Sprintf("toggling %s failed (%s)", e.Identity, e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FailedError) Unwrap() error { return e.Err }

// IsFailed reports whether err is a FailedError.
func IsFailed(err error) bool {
	var target *FailedError
	return errors.As(err, &target)
}

// FailureReason returns the reason of a FailedError in err's chain.
func FailureReason(err error) (Reason, bool) {
	var target *FailedError
	if errors.As(err, &target) {
		return target.Reason, true
	}
	return "", false
}
