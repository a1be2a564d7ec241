package automation

import (
	"fmt"
	"strings"
)

// Flags describe side effects of a parameter's value changing.
type Flags uint8

// FlagNone marks a parameter without side effects.
const FlagNone Flags = 0

const (
	// FlagAffectsRender invalidates the owner's render output when the
	// value changes.
	FlagAffectsRender Flags = 1 << iota
	// FlagModifiesProject marks the project modified when keyframes change.
	FlagModifiesProject
)

// KeySeparator joins the domain and name of a parameter key.
const KeySeparator = "::"

// Key identifies a parameter. Domains are usually the owner type name.
type Key struct {
	Domain string
	Name   string
}

func (k Key) String() string {
	return k.Domain + KeySeparator + k.Name
}

// ParseKey parses a "domain::name" identifier.
func ParseKey(s string) (Key, error) {
	domain, name, ok := strings.Cut(s, KeySeparator)
	if !ok || domain == "" || name == "" {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return Key{Domain: domain, Name: name}, nil
}

// OwnerType is the type identity of an automatable owner. Owner types form
// a single-inheritance chain so that a parameter registered on a base type
// applies to every derived type.
type OwnerType struct {
	name   string
	parent *OwnerType
}

// NewOwnerType creates an owner type deriving from parent (which may be nil).
func NewOwnerType(name string, parent *OwnerType) *OwnerType {
	return &OwnerType{name: name, parent: parent}
}

// Name returns the type name.
func (t *OwnerType) Name() string { return t.name }

// Parent returns the base type, or nil.
func (t *OwnerType) Parent() *OwnerType { return t.parent }

// Is reports whether t is base or derives from it.
func (t *OwnerType) Is(base *OwnerType) bool {
	for c := t; c != nil; c = c.parent {
		if c == base {
			return true
		}
	}
	return false
}

func (t *OwnerType) String() string { return t.name }

// Owner is an automatable object: a track, clip or effect.
type Owner interface {
	// OwnerType returns the owner's type identity.
	OwnerType() *OwnerType
	// AutomationData returns the owner's automation data.
	AutomationData() *Data
	// RelativePlayHead returns the timeline play head relative to the
	// owner, and false when the owner is not placed on a timeline or the
	// play head lies outside it.
	RelativePlayHead() (frame int64, ok bool)
	// InvalidateRender requests a new render of the owner's timeline.
	InvalidateRender()
	// MarkModified flags the owning project as having unsaved changes.
	MarkModified()
}

// Parameter describes one automatable property. Parameters are immutable
// once registered.
type Parameter struct {
	key   Key
	owner *OwnerType
	desc  Descriptor
	flags Flags
	index int

	get func(Owner) Value
	set func(Owner, Value)
}

// Key returns the parameter key.
func (p *Parameter) Key() Key { return p.key }

// OwnerType returns the type the parameter was registered against.
func (p *Parameter) OwnerType() *OwnerType { return p.owner }

// Descriptor returns the parameter descriptor.
func (p *Parameter) Descriptor() Descriptor { return p.desc }

// DataType returns the parameter's data type.
func (p *Parameter) DataType() DataType { return p.desc.Type }

// Flags returns the parameter flags.
func (p *Parameter) Flags() Flags { return p.flags }

// GlobalIndex returns the registration index, unique within a registry.
func (p *Parameter) GlobalIndex() int { return p.index }

// AppliesTo reports whether the parameter can be used with the owner type.
func (p *Parameter) AppliesTo(t *OwnerType) bool { return t.Is(p.owner) }

// CurrentValue reads the owner's live field.
func (p *Parameter) CurrentValue(o Owner) Value { return p.get(o) }

// NewKeyFrame creates a detached keyframe holding the default value.
func (p *Parameter) NewKeyFrame(frame int64) *KeyFrame {
	return &KeyFrame{frame: frame, value: p.desc.Default}
}

func (p *Parameter) String() string { return p.key.String() }

// Accessor reads and writes the live field a parameter is bound to.
type Accessor[O Owner, T any] struct {
	Get func(O) T
	Set func(O, T)
}

func register[O Owner, T any](r *Registry, owner *OwnerType, key Key, desc Descriptor, flags Flags,
	want DataType, acc Accessor[O, T], wrap func(T) Value, unwrap func(Value) T) (*Parameter, error) {
	if desc.Type != want || desc.Default.typ != want {
		return nil, fmt.Errorf("%w: %s is %s, want %s", ErrDescriptorType, key, desc.Type, want)
	}
	p := &Parameter{
		key:   key,
		owner: owner,
		desc:  desc,
		flags: flags,
		get:   func(o Owner) Value { return wrap(acc.Get(o.(O))) },
		set:   func(o Owner, v Value) { acc.Set(o.(O), unwrap(v)) },
	}
	if err := r.add(p); err != nil {
		return nil, err
	}
	return p, nil
}

// RegisterFloat registers a float parameter.
func RegisterFloat[O Owner](r *Registry, owner *OwnerType, key Key, desc Descriptor, flags Flags, acc Accessor[O, float32]) (*Parameter, error) {
	return register(r, owner, key, desc, flags, TypeFloat, acc, Float, Value.Float)
}

// RegisterDouble registers a double parameter.
func RegisterDouble[O Owner](r *Registry, owner *OwnerType, key Key, desc Descriptor, flags Flags, acc Accessor[O, float64]) (*Parameter, error) {
	return register(r, owner, key, desc, flags, TypeDouble, acc, Double, Value.Double)
}

// RegisterLong registers a long parameter.
func RegisterLong[O Owner](r *Registry, owner *OwnerType, key Key, desc Descriptor, flags Flags, acc Accessor[O, int64]) (*Parameter, error) {
	return register(r, owner, key, desc, flags, TypeLong, acc, Long, Value.Long)
}

// RegisterBool registers a boolean parameter.
func RegisterBool[O Owner](r *Registry, owner *OwnerType, key Key, desc Descriptor, flags Flags, acc Accessor[O, bool]) (*Parameter, error) {
	return register(r, owner, key, desc, flags, TypeBool, acc, Bool, Value.Bool)
}

// RegisterVector2 registers a vector parameter.
func RegisterVector2[O Owner](r *Registry, owner *OwnerType, key Key, desc Descriptor, flags Flags, acc Accessor[O, Vector2]) (*Parameter, error) {
	return register(r, owner, key, desc, flags, TypeVector2, acc, Vec2, Value.Vector2)
}
