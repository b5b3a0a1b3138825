package rules

import "github.com/Laisky/errors/v2"

// ErrUnknownKind is returned by the registry when asked to load a rule
// instance whose kind has no registered factory.
var ErrUnknownKind = errors.New("unknown rule kind")

// ErrDuplicateName is returned when installing a rule instance whose name
// is already taken by another instance of the same command namespace.
var ErrDuplicateName = errors.New("rule name already in use")

func errFieldMissing(kind, field string) error {
	return errors.Errorf("rule %q: missing required field %q", kind, field)
}

func errFieldType(kind, field string) error {
	return errors.Errorf("rule %q: field %q has the wrong value type", kind, field)
}

func errFieldConstraint(kind, field string) error {
	return errors.Errorf("rule %q: field %q failed its constraint", kind, field)
}
