package persist

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"
)

// Dict is an insertion-ordered map of named values.
// Setting an existing name replaces the value in place and keeps its position.
type Dict struct {
	keys   []string
	values map[string]any
}

// NewDict returns an empty dictionary.
func NewDict() *Dict {
	return &Dict{values: make(map[string]any)}
}

func (d *Dict) set(name string, v any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, ok := d.values[name]; !ok {
		d.keys = append(d.keys, name)
	}
	d.values[name] = v
}

// SetInt64 stores an integer field.
func (d *Dict) SetInt64(name string, v int64) { d.set(name, v) }

// SetInt stores an integer field.
func (d *Dict) SetInt(name string, v int) { d.set(name, int64(v)) }

// SetUint32 stores an unsigned 32-bit field as an integer.
func (d *Dict) SetUint32(name string, v uint32) { d.set(name, int64(v)) }

// SetFloat64 stores a floating point field.
func (d *Dict) SetFloat64(name string, v float64) { d.set(name, v) }

// SetFloat32 stores a floating point field.
func (d *Dict) SetFloat32(name string, v float32) { d.set(name, float64(v)) }

// SetBool stores a boolean field.
func (d *Dict) SetBool(name string, v bool) { d.set(name, v) }

// SetString stores a string field.
func (d *Dict) SetString(name string, v string) { d.set(name, v) }

// SetDict stores a nested dictionary.
func (d *Dict) SetDict(name string, v *Dict) { d.set(name, v) }

// CreateDict stores and returns a new nested dictionary.
func (d *Dict) CreateDict(name string) *Dict {
	child := NewDict()
	d.set(name, child)
	return child
}

// SetList stores a nested list.
func (d *Dict) SetList(name string, v *List) { d.set(name, v) }

// CreateList stores and returns a new nested list.
func (d *Dict) CreateList(name string) *List {
	child := &List{}
	d.set(name, child)
	return child
}

// SetStruct stores v as a fixed-size little-endian binary blob.
// v must be a fixed-size value accepted by encoding/binary.
func (d *Dict) SetStruct(name string, v any) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("persist: struct %q: %w", name, err)
	}
	d.set(name, blob(buf.Bytes()))
	return nil
}

// Has reports whether a field with the given name exists.
func (d *Dict) Has(name string) bool {
	_, ok := d.values[name]
	return ok
}

// Kind returns the kind of the named field, or KindInvalid if absent.
func (d *Dict) Kind(name string) Kind {
	v, ok := d.values[name]
	if !ok {
		return KindInvalid
	}
	return kindOf(v)
}

// Keys returns the field names in insertion order.
func (d *Dict) Keys() []string {
	return slices.Clone(d.keys)
}

// Len returns the number of fields.
func (d *Dict) Len() int {
	return len(d.keys)
}

// Delete removes a field. It reports whether the field existed.
func (d *Dict) Delete(name string) bool {
	if _, ok := d.values[name]; !ok {
		return false
	}
	delete(d.values, name)
	d.keys = slices.DeleteFunc(d.keys, func(k string) bool { return k == name })
	return true
}

// lookup returns the raw value, ErrFieldMissing or a TypeMismatchError.
func lookup[T any](d *Dict, name string, want Kind) (T, bool, error) {
	var zero T
	v, ok := d.values[name]
	if !ok {
		return zero, false, nil
	}
	tv, ok := v.(T)
	if !ok {
		return zero, true, &TypeMismatchError{Field: name, Want: want, Got: kindOf(v)}
	}
	return tv, true, nil
}

func get[T any](d *Dict, name string, want Kind) (T, error) {
	v, found, err := lookup[T](d, name, want)
	if err != nil {
		return v, err
	}
	if !found {
		return v, missing(name)
	}
	return v, nil
}

func getOr[T any](d *Dict, name string, want Kind, def T) (T, error) {
	v, found, err := lookup[T](d, name, want)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	return v, nil
}

// Int64 returns a required integer field.
func (d *Dict) Int64(name string) (int64, error) { return get[int64](d, name, KindInt) }

// Int64Or returns an integer field, or def when it is absent.
func (d *Dict) Int64Or(name string, def int64) (int64, error) {
	return getOr(d, name, KindInt, def)
}

// IntOr returns an integer field as int, or def when it is absent.
func (d *Dict) IntOr(name string, def int) (int, error) {
	v, err := getOr(d, name, KindInt, int64(def))
	return int(v), err
}

// Uint32Or returns an integer field as uint32, or def when it is absent.
func (d *Dict) Uint32Or(name string, def uint32) (uint32, error) {
	v, err := getOr(d, name, KindInt, int64(def))
	return uint32(v), err
}

// Float64 returns a required floating point field.
// Integer fields are accepted and converted.
func (d *Dict) Float64(name string) (float64, error) {
	if i, ok := d.values[name].(int64); ok {
		return float64(i), nil
	}
	return get[float64](d, name, KindFloat)
}

// Float64Or returns a floating point field, or def when it is absent.
func (d *Dict) Float64Or(name string, def float64) (float64, error) {
	if i, ok := d.values[name].(int64); ok {
		return float64(i), nil
	}
	return getOr(d, name, KindFloat, def)
}

// Bool returns a required boolean field.
func (d *Dict) Bool(name string) (bool, error) { return get[bool](d, name, KindBool) }

// BoolOr returns a boolean field, or def when it is absent.
func (d *Dict) BoolOr(name string, def bool) (bool, error) {
	return getOr(d, name, KindBool, def)
}

// StringValue returns a required string field.
func (d *Dict) StringValue(name string) (string, error) { return get[string](d, name, KindString) }

// StringOr returns a string field, or def when it is absent.
func (d *Dict) StringOr(name string, def string) (string, error) {
	return getOr(d, name, KindString, def)
}

// Dict returns a required nested dictionary.
func (d *Dict) Dict(name string) (*Dict, error) { return get[*Dict](d, name, KindDict) }

// DictOr returns a nested dictionary, or nil when it is absent.
func (d *Dict) DictOr(name string) (*Dict, error) {
	return getOr[*Dict](d, name, KindDict, nil)
}

// List returns a required nested list.
func (d *Dict) List(name string) (*List, error) { return get[*List](d, name, KindList) }

// ListOr returns a nested list, or an empty list when it is absent.
func (d *Dict) ListOr(name string) (*List, error) {
	return getOr(d, name, KindList, &List{})
}

// Struct decodes a required struct blob into out, which must be a pointer
// to a fixed-size value.
func (d *Dict) Struct(name string, out any) error {
	b, err := get[blob](d, name, KindStruct)
	if err != nil {
		return err
	}
	if size := binary.Size(out); size != len(b) {
		return fmt.Errorf("%w: %q holds %d bytes, want %d", ErrStructSize, name, len(b), size)
	}
	return binary.Read(bytes.NewReader(b), binary.LittleEndian, out)
}

// Equal reports whether two dictionaries hold the same fields in the same
// order with equal values.
func (d *Dict) Equal(other *Dict) bool {
	if d == nil || other == nil {
		return d == other
	}
	if !slices.Equal(d.keys, other.keys) {
		return false
	}
	for _, k := range d.keys {
		if !valueEqual(d.values[k], other.values[k]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case *Dict:
		bv, ok := b.(*Dict)
		return ok && av.Equal(bv)
	case *List:
		bv, ok := b.(*List)
		return ok && av.Equal(bv)
	case blob:
		bv, ok := b.(blob)
		return ok && bytes.Equal(av, bv)
	}
	return a == b
}
