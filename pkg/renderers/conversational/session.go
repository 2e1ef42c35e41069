package conversational

import "github.com/goliatone/go-formflow/pkg/formdef"

// session tracks the answers collected so far plus per-field bookkeeping for
// one interactive run. Field ids are flat, so no path machinery is needed.
type session struct {
	values       formdef.AnswerMap
	serverErrors map[string]string
	asked        map[string]bool
	shown        map[string]bool
}

func newSession(prefill formdef.AnswerMap, serverErrors map[string]string) *session {
	values := prefill.Clone()
	if values == nil {
		values = formdef.AnswerMap{}
	}
	errs := make(map[string]string, len(serverErrors))
	for id, msg := range serverErrors {
		errs[id] = msg
	}
	return &session{
		values:       values,
		serverErrors: errs,
		asked:        make(map[string]bool),
		shown:        make(map[string]bool),
	}
}

func (s *session) set(id string, value any) {
	s.values[id] = value
}

func (s *session) clear(id string) {
	delete(s.values, id)
}

// takeServerError returns the server-side message recorded for a field and
// forgets it, so it surfaces exactly once before the field is re-asked.
func (s *session) takeServerError(id string) string {
	msg := s.serverErrors[id]
	delete(s.serverErrors, id)
	return msg
}
