// Package discovery finds the members of a host struct that hold instances
// of a given capability.
//
// A host is inspected in two passes. Accessor methods come first, in the
// order reflect reports them. Struct fields of any visibility follow, in
// declaration order, with embedded structs and struct pointers walked in
// place. A field whose value is the same instance an accessor already
// returned is skipped, so an accessor and its backing field are only
// reported once. Nil values are never reported.
//
// Only getters count as accessors: an exported method with no parameters
// whose single result has the same type as a field of the same name,
// compared case-insensitively. Other methods are never called, so
// discovery does not run factories or other code with side effects.
//
//	type clock struct {
//	    core.Component
//	    ticker *behaviors.Timer
//	    model  *TimeContainer
//	}
//
//	// Model is a getter for model.
//	func (c *clock) Model() *TimeContainer { return c.model }
//
//	for _, m := range discovery.FindInstances[core.Behavior](&c) {
//	    fmt.Println(m.Name) // "ticker"
//	}
//
// The member table for a type is computed once and cached. Member values are
// read on every call because hosts reassign them between lifecycle stages.
package discovery

import (
	"reflect"
	"strings"
	"sync"
	"unsafe"
)

// Match pairs a discovered instance with the name of the member holding it.
type Match[T any] struct {
	Name     string
	Instance T
}

// SlotKind distinguishes accessor methods from fields.
type SlotKind int

const (
	// SlotAccessor is a getter: an exported method with no parameters whose
	// result has the type of the field it is named after.
	SlotAccessor SlotKind = iota
	// SlotField is a struct field of any visibility.
	SlotField
)

func (k SlotKind) String() string {
	if k == SlotAccessor {
		return "accessor"
	}
	return "field"
}

// Slot describes one member of a host type.
type Slot struct {
	Name string
	Kind SlotKind
	// Type is the declared type of the member.
	Type reflect.Type

	method int   // method index on the pointer type, for accessors
	index  []int // field index path, for fields
}

var slotCache sync.Map // reflect.Type -> []Slot

// Slots returns the member table of the struct type t (or of the struct t
// points to). The result is cached per type and must not be modified.
func Slots(t reflect.Type) []Slot {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	if cached, ok := slotCache.Load(t); ok {
		return cached.([]Slot)
	}
	slots := buildSlots(t)
	actual, _ := slotCache.LoadOrStore(t, slots)
	return actual.([]Slot)
}

func buildSlots(t reflect.Type) []Slot {
	fields := appendFields(nil, t, nil, map[reflect.Type]bool{t: true})

	var slots []Slot
	ptr := reflect.PointerTo(t)
	for i := 0; i < ptr.NumMethod(); i++ {
		m := ptr.Method(i)
		// Method type includes the receiver.
		if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
			continue
		}
		if !hasBackingField(fields, m.Name, m.Type.Out(0)) {
			continue
		}
		slots = append(slots, Slot{
			Name:   m.Name,
			Kind:   SlotAccessor,
			Type:   m.Type.Out(0),
			method: i,
		})
	}

	return append(slots, fields...)
}

func hasBackingField(fields []Slot, name string, t reflect.Type) bool {
	for _, f := range fields {
		if f.Type == t && strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// appendFields adds the fields of t, descending into embedded structs and
// struct pointers. visiting holds the embedded types on the current path.
func appendFields(slots []Slot, t reflect.Type, prefix []int, visiting map[reflect.Type]bool) []Slot {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := make([]int, len(prefix)+1)
		copy(index, prefix)
		index[len(prefix)] = i

		slots = append(slots, Slot{
			Name:  f.Name,
			Kind:  SlotField,
			Type:  f.Type,
			index: index,
		})

		if !f.Anonymous {
			continue
		}
		embedded := f.Type
		if embedded.Kind() == reflect.Pointer {
			embedded = embedded.Elem()
		}
		if embedded.Kind() != reflect.Struct || visiting[embedded] {
			continue
		}
		visiting[embedded] = true
		slots = appendFields(slots, embedded, index, visiting)
		delete(visiting, embedded)
	}
	return slots
}

// FindInstances returns every non-nil member of host whose declared type is
// assignable to T, paired with the member name. host should be a pointer to a
// struct; a struct value is inspected through a copy, anything else yields no
// matches. The call never mutates host.
func FindInstances[T any](host any) []Match[T] {
	capability := reflect.TypeFor[T]()

	v := reflect.ValueOf(host)
	if !v.IsValid() {
		return nil
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() || v.Elem().Kind() != reflect.Struct {
			return nil
		}
	} else if v.Kind() == reflect.Struct {
		copied := reflect.New(v.Type())
		copied.Elem().Set(v)
		v = copied
	} else {
		return nil
	}

	var (
		matches []Match[T]
		seen    []any
	)

	slots := Slots(v.Type())
	for _, slot := range slots {
		if slot.Kind != SlotAccessor || !slot.Type.AssignableTo(capability) {
			continue
		}
		out := v.Method(slot.method).Call(nil)[0]
		if isNilValue(out) {
			continue
		}
		instance := out.Interface()
		seen = append(seen, instance)
		matches = append(matches, Match[T]{Name: slot.Name, Instance: instance.(T)})
	}

	elem := v.Elem()
	for _, slot := range slots {
		if slot.Kind != SlotField || !slot.Type.AssignableTo(capability) {
			continue
		}
		field, ok := fieldByIndex(elem, slot.index)
		if !ok || isNilValue(field) {
			continue
		}
		instance := readable(field).Interface()
		if containsInstance(seen, instance) {
			continue
		}
		matches = append(matches, Match[T]{Name: slot.Name, Instance: instance.(T)})
	}

	return matches
}

// fieldByIndex walks an index path through embedded structs. It reports
// false when the path crosses a nil embedded pointer.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// readable returns a view of an addressable field that allows Interface()
// even when the field is unexported.
func readable(field reflect.Value) reflect.Value {
	if field.CanInterface() {
		return field
	}
	return reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem()
}

func containsInstance(seen []any, instance any) bool {
	for _, s := range seen {
		if SameInstance(s, instance) {
			return true
		}
	}
	return false
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

// IsNil reports whether v is nil or an interface holding a nil pointer-like value.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	return isNilValue(reflect.ValueOf(v))
}

// SameInstance reports whether a and b refer to the same instance.
// Pointer-shaped values compare by address; other comparable values compare
// with ==. Values of different dynamic types are never the same instance.
func SameInstance(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !va.Comparable() {
		return false
	}
	return va.Equal(vb)
}
