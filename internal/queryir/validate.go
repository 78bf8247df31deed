package queryir

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalid is wrapped by every error Validate returns.
var ErrInvalid = errors.New("invalid filter")

// Validate checks that p only references known fields and that its ranges
// and disjunctions are well formed. A nil filter is valid.
func Validate(p Predicate) error {
	return validate(p, "filter")
}

func validate(p Predicate, path string) error {
	switch pred := p.(type) {
	case nil:
		if path == "filter" {
			return nil
		}
		return invalid(path, "nil predicate")
	case Equals:
		return checkField(pred.Field, path)
	case *Equals:
		return validate(*pred, path)
	case Range:
		if err := checkField(pred.Field, path); err != nil {
			return err
		}
		if pred.Lo > pred.Hi {
			return invalid(path, fmt.Sprintf("empty range [%d, %d]", pred.Lo, pred.Hi))
		}
		return nil
	case *Range:
		return validate(*pred, path)
	case Involves, *Involves, Mentions, *Mentions:
		return nil
	case And:
		return validateAll(pred.Predicates, path+".and")
	case *And:
		return validate(*pred, path)
	case Or:
		if len(pred.Predicates) == 0 {
			return invalid(path, "empty or")
		}
		return validateAll(pred.Predicates, path+".or")
	case *Or:
		return validate(*pred, path)
	case Not:
		if pred.Predicate == nil {
			return invalid(path, "not without operand")
		}
		return validate(pred.Predicate, path+".not")
	case *Not:
		return validate(*pred, path)
	default:
		return invalid(path, fmt.Sprintf("unsupported predicate %T", p))
	}
}

func validateAll(preds []Predicate, path string) error {
	for i, p := range preds {
		if p == nil {
			return invalid(fmt.Sprintf("%s[%d]", path, i), "nil predicate")
		}
		if err := validate(p, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func checkField(f Field, path string) error {
	if !slices.Contains(Fields, f) {
		return invalid(path, fmt.Sprintf("unknown field %q", f))
	}
	return nil
}

func invalid(path, msg string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalid, path, msg)
}
