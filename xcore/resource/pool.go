package resource

// Pool is a fixed-size arena of resources of one kind, addressed by stable index
// (spec.md §9: "model them as arena-allocated structures addressed by stable
// indices"). GETR scans for a free slot; FREER releases one.
type Pool[T any] struct {
	kind  Kind
	items []T
	base  func(*T) *Base
}

// NewPool allocates a pool of n zero-valued items of the given kind. getBase extracts
// the embedded Base from an item pointer (Go has no field-of-generic-interface access,
// so callers supply the accessor once).
func NewPool[T any](kind Kind, n int, getBase func(*T) *Base, initID func(id ID, item *T)) *Pool[T] {
	p := &Pool[T]{kind: kind, items: make([]T, n), base: getBase}
	for i := range p.items {
		id := MakeID(kind, uint32(i))
		*getBase(&p.items[i]) = NewBase(id)
		if initID != nil {
			initID(id, &p.items[i])
		}
	}
	return p
}

// Len returns the pool's fixed size.
func (p *Pool[T]) Len() int { return len(p.items) }

// At returns a pointer to the item at the given slot number.
func (p *Pool[T]) At(num uint32) *T {
	if int(num) >= len(p.items) {
		return nil
	}
	return &p.items[num]
}

// Get resolves a ResourceID of this pool's kind to its item, or nil if the kind or
// number is out of range.
func (p *Pool[T]) Get(id ID) *T {
	if id.Kind() != p.kind {
		return nil
	}
	return p.At(id.Num())
}

// Alloc finds a free slot, marks it in-use under owner, and returns it. ok is false
// when the pool is exhausted.
func (p *Pool[T]) Alloc(owner ThreadID) (item *T, ok bool) {
	for i := range p.items {
		b := p.base(&p.items[i])
		if !b.InUse {
			b.Alloc(owner)
			return &p.items[i], true
		}
	}
	return nil, false
}
