package automation

import (
	"fmt"

	"github.com/gogpu/nle/internal/event"
)

// Data aggregates the sequences of one owner: one per parameter registered
// against the owner's type or any of its base types, ordered by global
// index. Data is created once per owner and never shared.
type Data struct {
	owner     Owner
	registry  *Registry
	sequences []*Sequence
	byParam   map[*Parameter]*Sequence
	activeID  string

	parameterChanged event.List[*Sequence]
}

// NewData creates the automation data for owner.
func NewData(owner Owner, reg *Registry) *Data {
	params := reg.ApplicableTo(owner.OwnerType())
	d := &Data{
		owner:     owner,
		registry:  reg,
		sequences: make([]*Sequence, 0, len(params)),
		byParam:   make(map[*Parameter]*Sequence, len(params)),
	}
	for _, p := range params {
		s := newSequence(d, p)
		d.sequences = append(d.sequences, s)
		d.byParam[p] = s
	}
	return d
}

// Owner returns the automatable owner.
func (d *Data) Owner() Owner { return d.owner }

// Registry returns the registry the data was built from.
func (d *Data) Registry() *Registry { return d.registry }

// Sequences returns the sequences in global index order.
func (d *Data) Sequences() []*Sequence {
	out := make([]*Sequence, len(d.sequences))
	copy(out, d.sequences)
	return out
}

// Sequence returns the sequence for p, or nil when p does not apply to the
// owner.
func (d *Data) Sequence(p *Parameter) *Sequence {
	return d.byParam[p]
}

// SequenceByKey returns the sequence for the parameter registered under key.
func (d *Data) SequenceByKey(key Key) (*Sequence, error) {
	p, ok := d.registry.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, key)
	}
	s := d.byParam[p]
	if s == nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrNotApplicable, key, d.owner.OwnerType())
	}
	return s, nil
}

// IsAutomated reports whether the sequence for p has keyframes.
func (d *Data) IsAutomated(p *Parameter) bool {
	s := d.byParam[p]
	return s != nil && !s.IsEmpty()
}

// ActiveKey returns the id of the sequence selected for editing, if any.
func (d *Data) ActiveKey() string { return d.activeID }

// SetActiveKey selects the sequence shown for editing.
func (d *Data) SetActiveKey(id string) { d.activeID = id }

// OnParameterChanged registers a handler fired after any sequence of this
// owner updates its value.
func (d *Data) OnParameterChanged(fn func(*Sequence)) (remove func()) {
	return d.parameterChanged.Add(fn)
}

// Update evaluates every automatable sequence at frame.
func (d *Data) Update(frame int64) {
	for _, s := range d.sequences {
		if s.CanAutomate() {
			s.UpdateValue(frame)
		}
	}
}

// UpdateAll pushes every sequence's value at the owner's play head into the
// owner, falling back to defaults when the owner has no play head.
func (d *Data) UpdateAll() {
	for _, s := range d.sequences {
		s.UpdateValueAtPlayHead(true)
	}
}

// SetDefault replaces the default value of the parameter under key and
// pushes the effective value into the owner, even when it has no play head.
func (d *Data) SetDefault(key Key, v Value) error {
	s, err := d.SequenceByKey(key)
	if err != nil {
		return err
	}
	if err := s.def.SetValue(v); err != nil {
		return err
	}
	s.UpdateValueAtPlayHead(true)
	return nil
}

// CopyTo loads this data's sequences into dst, which must belong to an
// owner of the same type.
func (d *Data) CopyTo(dst *Data) error {
	dst.activeID = d.activeID
	for _, s := range d.sequences {
		ds := dst.byParam[s.param]
		if ds == nil {
			return fmt.Errorf("%w: %s on %s", ErrNotApplicable, s.param.key, dst.owner.OwnerType())
		}
		if err := s.CopyTo(ds); err != nil {
			return err
		}
	}
	return nil
}
