package value

// Kind tags the specialized role an Object plays when it is acting as a
// boxed primitive or a view over another shape, per §3. Ordinary objects
// (the common case: plain property bags, class/prototype objects) carry
// KindOrdinary.
type Kind byte

const (
	KindOrdinary Kind = iota
	KindNumberBox
	KindBoolBox
	KindStringBox
	KindArrayBox
	KindFunctionBox
)

// Property is one entry in an Object's own-property list. Properties are
// kept in insertion order; lookup never reorders them.
type Property struct {
	Key        Value
	Value      Value
	Enumerated bool
	Writable   bool
	Get        *Function
	Set        *Function
}

// Object is the heap cell backing the Object Value shape: a
// prototype-chained, insertion-ordered property container.
type Object struct {
	Header
	Prototype  *Object
	Properties []Property
	Kind       Kind
	// Boxed holds the primitive a boxed Object wraps (Kind !=
	// KindOrdinary). It is not itself part of the property list; it
	// exists so a box can still answer is_truthy/arithmetic/TypeOf
	// through unwrap helpers without a synthetic "value" property.
	Boxed Value
}

// NewObject allocates a fresh, empty Object delegating to prototype
// (which may be nil for no delegation).
func NewObject(prototype *Object) *Object {
	return &Object{Header: Header{id: allocID()}, Prototype: prototype}
}

// indexOf returns the index of the own property named key, or -1.
func (o *Object) indexOf(key Value) int {
	for i := range o.Properties {
		if Equal(o.Properties[i].Key, key) {
			return i
		}
	}
	return -1
}

// GetOwn looks up key among o's own properties only, ignoring the
// prototype chain. ok is false when no own property matches.
func (o *Object) GetOwn(key Value) (Property, bool) {
	if i := o.indexOf(key); i >= 0 {
		return o.Properties[i], true
	}
	return Property{}, false
}

// Get implements the lookup policy from §3: own properties first, then
// the prototype chain, Null on total miss. The bool result distinguishes
// "absent" from "present and Null": it is true whenever an object on the
// chain has the key, even if that property's Value is nil, and false
// only on a total miss.
func (o *Object) Get(key Value) (Value, bool) {
	for cur := o; cur != nil; cur = cur.Prototype {
		if prop, ok := cur.GetOwn(key); ok {
			if prop.Get != nil {
				return prop.Get, true
			}
			return prop.Value, true
		}
	}
	return nil, false
}

// Set creates or overwrites an own property. A property created this way
// defaults to Enumerated=true, Writable=true, matching ordinary field
// assignment via StoreField. Setting a non-writable existing property is
// a silent no-op; the caller (StoreField's implementation) is expected to
// have already checked Writable before choosing to call Set, since
// distinguishing "rejected" from "applied" is a VM-level error condition,
// not an Object-level one.
func (o *Object) Set(key, val Value) {
	if i := o.indexOf(key); i >= 0 {
		if !o.Properties[i].Writable {
			return
		}
		o.Properties[i].Value = val
		return
	}
	o.Properties = append(o.Properties, Property{
		Key: key, Value: val, Enumerated: true, Writable: true,
	})
}

// Trace visits the prototype and every property's key, value, getter and
// setter, which is what makes property cycles (an object referencing
// itself through a property) safe under a tracing collector.
func (o *Object) Trace(visit func(Value)) {
	if o.Prototype != nil {
		visit(o.Prototype)
	}
	for _, p := range o.Properties {
		visit(p.Key)
		visit(p.Value)
		if p.Get != nil {
			visit(p.Get)
		}
		if p.Set != nil {
			visit(p.Set)
		}
	}
	if o.Kind != KindOrdinary {
		visit(o.Boxed)
	}
}
