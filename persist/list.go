package persist

import "fmt"

// List is an ordered sequence of values.
type List struct {
	items []any
}

// NewList returns an empty list.
func NewList() *List {
	return &List{}
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// AddInt64 appends an integer.
func (l *List) AddInt64(v int64) { l.items = append(l.items, v) }

// AddFloat64 appends a floating point value.
func (l *List) AddFloat64(v float64) { l.items = append(l.items, v) }

// AddBool appends a boolean.
func (l *List) AddBool(v bool) { l.items = append(l.items, v) }

// AddString appends a string.
func (l *List) AddString(v string) { l.items = append(l.items, v) }

// AddDict appends a dictionary.
func (l *List) AddDict(v *Dict) { l.items = append(l.items, v) }

// AddList appends a nested list.
func (l *List) AddList(v *List) { l.items = append(l.items, v) }

// CreateDict appends and returns a new dictionary.
func (l *List) CreateDict() *Dict {
	d := NewDict()
	l.items = append(l.items, d)
	return d
}

// KindAt returns the kind of the item at i.
func (l *List) KindAt(i int) Kind {
	if i < 0 || i >= len(l.items) {
		return KindInvalid
	}
	return kindOf(l.items[i])
}

func at[T any](l *List, i int, want Kind) (T, error) {
	var zero T
	if i < 0 || i >= len(l.items) {
		return zero, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(l.items))
	}
	v, ok := l.items[i].(T)
	if !ok {
		return zero, &TypeMismatchError{Field: fmt.Sprintf("[%d]", i), Want: want, Got: kindOf(l.items[i])}
	}
	return v, nil
}

// DictAt returns the dictionary at i.
func (l *List) DictAt(i int) (*Dict, error) { return at[*Dict](l, i, KindDict) }

// Int64At returns the integer at i.
func (l *List) Int64At(i int) (int64, error) { return at[int64](l, i, KindInt) }

// Float64At returns the floating point value at i.
func (l *List) Float64At(i int) (float64, error) {
	if i >= 0 && i < len(l.items) {
		if v, ok := l.items[i].(int64); ok {
			return float64(v), nil
		}
	}
	return at[float64](l, i, KindFloat)
}

// StringAt returns the string at i.
func (l *List) StringAt(i int) (string, error) { return at[string](l, i, KindString) }

// BoolAt returns the boolean at i.
func (l *List) BoolAt(i int) (bool, error) { return at[bool](l, i, KindBool) }

// Dicts returns every item as a dictionary, failing on the first item of
// another kind.
func (l *List) Dicts() ([]*Dict, error) {
	out := make([]*Dict, 0, len(l.items))
	for i := range l.items {
		d, err := l.DictAt(i)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Equal reports whether two lists hold equal values in the same order.
func (l *List) Equal(other *List) bool {
	if l == nil || other == nil {
		return l == other
	}
	if len(l.items) != len(other.items) {
		return false
	}
	for i := range l.items {
		if !valueEqual(l.items[i], other.items[i]) {
			return false
		}
	}
	return true
}
