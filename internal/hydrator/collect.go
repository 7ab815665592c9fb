package hydrator

import (
	"fmt"
	"reflect"
	"strings"
)

// nullSlot marks a null identifier; it never reaches the resolver.
const nullSlot = -1

// batch is the state of one hydrate call. Every distinct identifier owns one
// slot; collection sites refer to slots by index so that repeated references
// share a single resolved value.
type batch struct {
	pluralizer Pluralizer

	index      map[any]int
	ids        []any
	values     []any
	sites      []site
	references int
}

// site is one (document, key) location where substitution happens.
type site struct {
	doc   Document
	key   string // key found during traversal
	dest  string // key the hydrated value is written under
	many  bool
	slots []int
}

func newBatch(pluralizer Pluralizer) *batch {
	return &batch{
		pluralizer: pluralizer,
		index:      make(map[any]int),
	}
}

// collect walks node along steps and records every collection site reached.
// A missing key or a non-document value ends the branch without error.
func (b *batch) collect(node any, steps Path) error {
	doc, ok := node.(Document)
	if !ok || len(steps) == 0 {
		return nil
	}

	key := steps[0]
	value, ok := doc[key]
	if !ok {
		return nil
	}

	if len(steps) == 1 {
		return b.addSite(doc, key, value)
	}

	if items, ok := asSequence(value); ok {
		for _, item := range items {
			if err := b.collect(item, steps[1:]); err != nil {
				return err
			}
		}
		return nil
	}
	return b.collect(value, steps[1:])
}

func (b *batch) addSite(doc Document, key string, value any) error {
	s := site{
		doc:  doc,
		key:  key,
		dest: hydratedKey(key, b.pluralizer),
	}

	if items, ok := asSequence(value); ok {
		s.many = true
		s.slots = make([]int, len(items))
		for i, id := range items {
			slot, err := b.slotFor(id)
			if err != nil {
				return fmt.Errorf("%w at %q[%d]", err, key, i)
			}
			s.slots[i] = slot
		}
	} else {
		slot, err := b.slotFor(value)
		if err != nil {
			return fmt.Errorf("%w at %q", err, key)
		}
		s.slots = []int{slot}
	}

	b.sites = append(b.sites, s)
	return nil
}

// slotFor returns the slot for id, allocating one on first sight.
func (b *batch) slotFor(id any) (int, error) {
	if id == nil {
		return nullSlot, nil
	}
	if raw, ok := id.([]byte); ok {
		id = string(raw)
	}
	// Value.Comparable also inspects the dynamic elements of arrays, structs and
	// interfaces, which a type check misses.
	if !reflect.ValueOf(id).Comparable() {
		return 0, fmt.Errorf("%w: %T", ErrInvalidIdentifier, id)
	}

	b.references++
	if slot, ok := b.index[id]; ok {
		return slot, nil
	}
	slot := len(b.ids)
	b.index[id] = slot
	b.ids = append(b.ids, id)
	return slot, nil
}

// substitute writes resolved values back into every collection site.
func (b *batch) substitute() {
	for _, s := range b.sites {
		if s.dest != s.key {
			delete(s.doc, s.key)
		}
		if !s.many {
			s.doc[s.dest] = b.value(s.slots[0])
			continue
		}
		hydrated := make([]any, len(s.slots))
		for i, slot := range s.slots {
			hydrated[i] = b.value(slot)
		}
		s.doc[s.dest] = hydrated
	}
}

func (b *batch) value(slot int) any {
	if slot == nullSlot {
		return nil
	}
	return b.values[slot]
}

// hydratedKey strips an "_id" suffix, or strips "_ids" and pluralizes the stem.
// Keys that are nothing but the suffix are kept as they are.
func hydratedKey(key string, pluralizer Pluralizer) string {
	if stem, ok := strings.CutSuffix(key, "_ids"); ok && stem != "" {
		return pluralizer.Pluralize(stem)
	}
	if stem, ok := strings.CutSuffix(key, "_id"); ok && stem != "" {
		return stem
	}
	return key
}

// asSequence reports whether v is an ordered sequence and returns its elements.
// Byte slices and arrays are scalars: a []byte is read as a string identifier and
// an array of comparable values can serve as a composite identifier.
func asSequence(v any) ([]any, bool) {
	switch items := v.(type) {
	case nil, []byte:
		return nil, false
	case []any:
		return items, true
	case []Document:
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = item
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
