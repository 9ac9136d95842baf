// If you are AI: This file defines ContractViolation, the typed panic value used for fatal, non-recoverable invariant breaks.

package bot

import "fmt"

// ContractViolation marks a fatal, non-recoverable break of one of the
// bot instance's invariants: frame geometry changing after it has been
// latched, a control callback missing while a non-null configuration
// was supplied, or queued message data that isn't an object. These do
// not propagate as stream errors — they abort.
// Callers panic with a ContractViolation value. The mains
// (cmd/videobot, cmd/videobot-recorder) recover one raised on their own
// goroutine and turn it into a non-zero exit code; one raised on the
// pipeline goroutine is not recovered and ends the process through Go's
// default panic handling, also with a non-zero exit code.
type ContractViolation struct {
	Reason string
}

// Error implements the error interface so ContractViolation can be
// logged like any other error once recovered.
func (c ContractViolation) Error() string {
	return fmt.Sprintf("contract violation: %s", c.Reason)
}

// abort panics with a ContractViolation built from the given format and
// arguments.
func abort(format string, args ...any) {
	panic(ContractViolation{Reason: fmt.Sprintf(format, args...)})
}
