package rules

// ConstraintKind describes a validation rule attached to a Field.
type ConstraintKind int

const (
	ConstraintNone ConstraintKind = iota
	ConstraintRange
	ConstraintOneOf
	ConstraintNonEmpty
	ConstraintValidRegex
)

// Constraint validates a candidate Value before it is accepted into a
// rule's configuration.
type Constraint struct {
	Kind    ConstraintKind
	Min     int64
	Max     int64
	OneOf   []string
}

// Check reports whether v satisfies the constraint. An unrecognised
// ConstraintKind always passes, since ConstraintNone is the common case.
func (c Constraint) Check(v Value) bool {
	switch c.Kind {
	case ConstraintRange:
		return v.Kind == KindI64 && v.I64 >= c.Min && v.I64 <= c.Max
	case ConstraintOneOf:
		if v.Kind != KindStr {
			return false
		}
		for _, candidate := range c.OneOf {
			if candidate == v.Str {
				return true
			}
		}
		return false
	case ConstraintNonEmpty:
		switch v.Kind {
		case KindStr:
			return v.Str != ""
		case KindStrList:
			return len(v.StrList) > 0
		default:
			return true
		}
	case ConstraintValidRegex:
		return v.Kind == KindRegex && v.Regex != nil
	default:
		return true
	}
}

// Field describes one named, typed, optionally-constrained slot in a rule
// kind's configuration.
type Field struct {
	Name        string
	Kind        ValueKind
	Required    bool
	Default     *Value
	Constraint  Constraint
	Description string
}

// Schema is the ordered set of fields a rule kind accepts. Kind is the
// rule kind's registered name (e.g. "points", "filter"), used both for
// dispatch at load time and for the operator-facing schema dump.
type Schema struct {
	Kind        string
	Description string
	Fields      []Field
}

// FieldByName returns the field with the given name, or nil.
func (s Schema) FieldByName(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// Validate checks that every required field is present in values and that
// every present value satisfies its field's constraint and is of the
// field's declared kind.
func (s Schema) Validate(values map[string]Value) error {
	for _, f := range s.Fields {
		v, ok := values[f.Name]
		if !ok {
			if f.Required {
				return errFieldMissing(s.Kind, f.Name)
			}
			continue
		}
		if v.Kind != f.Kind {
			return errFieldType(s.Kind, f.Name)
		}
		if !f.Constraint.Check(v) {
			return errFieldConstraint(s.Kind, f.Name)
		}
	}
	return nil
}
