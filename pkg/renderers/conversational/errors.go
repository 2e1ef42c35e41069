package conversational

import "errors"

// ErrAborted signals the respondent aborted the session (e.g. Ctrl+C).
var ErrAborted = errors.New("conversational: aborted")
