package bank

import (
	"errors"
	"fmt"
	"strconv"
)

// SubTypeSingleChoice is the subType value the quiz service uses for
// single-choice questions.
const SubTypeSingleChoice = "单选题"

type Kind int

const (
	KindUnsupported Kind = iota
	KindSingleChoice
)

func (k Kind) String() string {
	switch k {
	case KindSingleChoice:
		return "single_choice"
	default:
		return "unsupported"
	}
}

// KindFromSubType maps a bank subType value to a Kind.
func KindFromSubType(subType string) Kind {
	if subType == SubTypeSingleChoice {
		return KindSingleChoice
	}
	return KindUnsupported
}

// Question is one known question with its answer. Options is only set for
// KindSingleChoice, where len(Options) == OptionCount >= 1.
type Question struct {
	Description string
	ID          int
	Kind        Kind
	CourseID    int
	OptionCount int
	Answer      string
	Options     []string
}

func (q Question) String() string {
	return q.Kind.String() + " [" + strconv.Itoa(q.ID) + "]: " + q.Description
}

var (
	ErrMissingField    = errors.New("missing required field")
	ErrUnsupportedKind = errors.New("unsupported question type")
	ErrMalformedRow    = errors.New("malformed row")
)

// RowError reports why a bank row was skipped. Row errors never abort a load.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
