package submit

import (
	"fmt"

	"github.com/goliatone/go-formflow/pkg/flow"
)

// BlockedError is returned when the answers fail validation before any
// network call is made. It carries the engine result so callers can render
// the per-field messages.
type BlockedError struct {
	Result flow.Result
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("submit: submission blocked by validation (%d field errors)", len(e.Result.Errors))
}
