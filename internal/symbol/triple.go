package symbol

import "fmt"

// Triple is one (subject, predicate, object) fact. Triples are values and
// compare equal field by field.
type Triple struct {
	Subject   Symbol `json:"subject"`
	Predicate Symbol `json:"predicate"`
	Object    Symbol `json:"object"`
}

// NewTriple validates all three ids.
func NewTriple(s, p, o uint64) (Triple, error) {
	subj, err := New(s)
	if err != nil {
		return Triple{}, fmt.Errorf("subject: %w", err)
	}
	pred, err := New(p)
	if err != nil {
		return Triple{}, fmt.Errorf("predicate: %w", err)
	}
	obj, err := New(o)
	if err != nil {
		return Triple{}, fmt.Errorf("object: %w", err)
	}
	return Triple{Subject: subj, Predicate: pred, Object: obj}, nil
}

// Valid reports whether every position holds a non-zero symbol.
func (t Triple) Valid() bool {
	return t.Subject.Valid() && t.Predicate.Valid() && t.Object.Valid()
}

// Symbols returns subject, predicate and object in that order.
func (t Triple) Symbols() [3]Symbol {
	return [3]Symbol{t.Subject, t.Predicate, t.Object}
}

func (t Triple) String() string {
	return fmt.Sprintf("(%s, %s, %s)", t.Subject, t.Predicate, t.Object)
}
