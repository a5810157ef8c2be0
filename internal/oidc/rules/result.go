package rules

import (
	dErrors "oidcop/pkg/domain-errors"
)

// Key identifies a rule and, by default, the result it produces.
type Key string

// Result is the immutable output of one rule.
type Result struct {
	key   Key
	value any
}

func NewResult(key Key, value any) *Result {
	return &Result{key: key, value: value}
}

func (r *Result) Key() Key   { return r.key }
func (r *Result) Value() any { return r.value }

// ResultBag accumulates results in insertion order. Rules only read it; the
// manager is the only writer.
type ResultBag struct {
	order   []Key
	results map[Key]*Result
}

func NewResultBag() *ResultBag {
	return &ResultBag{results: make(map[Key]*Result)}
}

// Add stores r, replacing an earlier result with the same key in place.
func (b *ResultBag) Add(r *Result) {
	if _, ok := b.results[r.key]; !ok {
		b.order = append(b.order, r.key)
	}
	b.results[r.key] = r
}

// Get returns nil when key was never computed.
func (b *ResultBag) Get(key Key) *Result {
	return b.results[key]
}

// GetOrFail is for rule dependencies. A missing result means the chain was
// assembled in the wrong order.
func (b *ResultBag) GetOrFail(key Key) (*Result, error) {
	r, ok := b.results[key]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "rule result %q was never computed", key)
	}
	return r, nil
}

func (b *ResultBag) All() []*Result {
	out := make([]*Result, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, b.results[k])
	}
	return out
}

func (b *ResultBag) Len() int { return len(b.order) }

// ValueOf reads a dependency and asserts its type.
func ValueOf[T any](b *ResultBag, key Key) (T, error) {
	var zero T
	r, err := b.GetOrFail(key)
	if err != nil {
		return zero, err
	}
	if r.value == nil {
		return zero, nil
	}
	v, ok := r.value.(T)
	if !ok {
		return zero, dErrors.Newf(dErrors.CodeInvariantViolation, "rule result %q has type %T", key, r.value)
	}
	return v, nil
}

// OptionalValueOf is ValueOf for results that may be absent.
func OptionalValueOf[T any](b *ResultBag, key Key) (T, bool) {
	var zero T
	r := b.Get(key)
	if r == nil || r.value == nil {
		return zero, false
	}
	v, ok := r.value.(T)
	return v, ok
}
