package exam

import (
	"errors"
	"fmt"

	"github.com/bpcprep/examportal-backend/internal/model"
)

// Session lifecycle errors.
var (
	// ErrNoSession indicates no persisted session exists for the user.
	ErrNoSession = errors.New("no active exam session")

	// ErrCorruptSession indicates a persisted session blob is missing
	// required fields or cannot be decoded. Callers should discard the blob
	// and create a fresh session rather than fail hard.
	ErrCorruptSession = errors.New("corrupt exam session")

	// ErrAlreadySubmitted indicates a mutation or second submit was
	// attempted on a submitted session. The session is left unchanged.
	ErrAlreadySubmitted = errors.New("exam session already submitted")
)

// InsufficientPoolError reports that the question bank cannot cover the
// configured draw for one question type. It is fatal to session creation.
type InsufficientPoolError struct {
	Type model.QuestionType
	Need int
	Have int
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("insufficient %s pool: need %d, have %d", e.Type, e.Need, e.Have)
}
