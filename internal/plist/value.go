package plist

import (
	"bytes"
	"iter"
	"math"
	"time"
)

// Kind identifies a [Value] variant.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindReal
	KindDate
	KindBool
	KindData
	KindDict
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	case KindData:
		return "data"
	case KindDict:
		return "dict"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is a node of a property list tree.
//
// The set of implementations is closed; switch on the concrete type or on [Value.Kind].
type Value interface {
	Kind() Kind
	isValue()
}

type (
	String  string
	Integer int64
	// Unsigned holds integers above [math.MaxInt64], which some libraries write for file sizes.
	Unsigned uint64
	Real     float64
	Date     time.Time
	Bool     bool
	Data     []byte
	Array    []Value
)

func (String) Kind() Kind   { return KindString }
func (Integer) Kind() Kind  { return KindInteger }
func (Unsigned) Kind() Kind { return KindInteger }
func (Real) Kind() Kind     { return KindReal }
func (Date) Kind() Kind     { return KindDate }
func (Bool) Kind() Kind     { return KindBool }
func (Data) Kind() Kind     { return KindData }
func (Array) Kind() Kind    { return KindArray }
func (*Dict) Kind() Kind    { return KindDict }

func (String) isValue()   {}
func (Integer) isValue()  {}
func (Unsigned) isValue() {}
func (Real) isValue()     {}
func (Date) isValue()     {}
func (Bool) isValue()     {}
func (Data) isValue()     {}
func (Array) isValue()    {}
func (*Dict) isValue()    {}

// Time returns d as a [time.Time] in UTC.
func (d Date) Time() time.Time { return time.Time(d).UTC() }

// NewDate truncates t to whole seconds, the resolution of plist dates.
func NewDate(t time.Time) Date { return Date(t.UTC().Truncate(time.Second)) }

// Entry is a single key/value pair of a [Dict].
type Entry struct {
	Key   string
	Value Value
}

// Dict is an ordered dictionary. The zero value is empty and ready to use.
type Dict struct {
	entries []Entry
	index   map[string]int
}

// NewDict builds a dictionary from entries, keeping their order. Later duplicates replace earlier values in place.
func NewDict(entries ...Entry) *Dict {
	d := &Dict{}
	for _, e := range entries {
		d.Set(e.Key, e.Value)
	}
	return d
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (Value, bool) {
	if d == nil || d.index == nil {
		return nil, false
	}
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.entries[i].Value, true
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Set stores v under key. Existing keys keep their position; new keys are appended.
func (d *Dict) Set(key string, v Value) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[key]; ok {
		d.entries[i].Value = v
		return
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, Entry{Key: key, Value: v})
}

// Delete removes key, reporting whether it was present.
func (d *Dict) Delete(key string) bool {
	if d == nil || d.index == nil {
		return false
	}
	i, ok := d.index[key]
	if !ok {
		return false
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, key)
	for j := i; j < len(d.entries); j++ {
		d.index[d.entries[j].Key] = j
	}
	return true
}

// Keys returns the keys in order.
func (d *Dict) Keys() []string {
	keys := make([]string, 0, d.Len())
	for k := range d.All() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates over the entries in order.
func (d *Dict) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if d == nil {
			return
		}
		for _, e := range d.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Clone returns a shallow copy: a new entry list sharing the same values.
func (d *Dict) Clone() *Dict {
	c := &Dict{
		entries: make([]Entry, len(d.entries)),
		index:   make(map[string]int, len(d.entries)),
	}
	copy(c.entries, d.entries)
	for i, e := range c.entries {
		c.index[e.Key] = i
	}
	return c
}

// String returns the string stored under key.
func (d *Dict) String(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(String)
	return string(s), ok
}

// Int returns the integer stored under key. [Unsigned] values that overflow int64 are not returned.
func (d *Dict) Int(key string) (int64, bool) {
	v, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	return AsInt64(v)
}

// Bool returns the boolean stored under key.
func (d *Dict) Bool(key string) (bool, bool) {
	v, ok := d.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(Bool)
	return bool(b), ok
}

// Date returns the date stored under key.
func (d *Dict) Date(key string) (time.Time, bool) {
	v, ok := d.Get(key)
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(Date)
	return t.Time(), ok
}

// Dict returns the dictionary stored under key.
func (d *Dict) Dict(key string) (*Dict, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	c, ok := v.(*Dict)
	return c, ok && c != nil
}

// Array returns the array stored under key.
func (d *Dict) Array(key string) (Array, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	a, ok := v.(Array)
	return a, ok
}

// AsInt64 converts integer values to int64.
func AsInt64(v Value) (int64, bool) {
	switch n := v.(type) {
	case Integer:
		return int64(n), true
	case Unsigned:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// Equal reports whether a and b are structurally identical, including dictionary key order.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Integer:
		y, ok := b.(Integer)
		return ok && x == y
	case Unsigned:
		y, ok := b.(Unsigned)
		return ok && x == y
	case Real:
		y, ok := b.(Real)
		if !ok {
			return false
		}
		if math.IsNaN(float64(x)) {
			return math.IsNaN(float64(y))
		}
		return x == y
	case Date:
		y, ok := b.(Date)
		return ok && x.Time().Equal(y.Time())
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Data:
		y, ok := b.(Data)
		return ok && bytes.Equal(x, y)
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		if x.Len() == 0 {
			return true
		}
		for i, e := range x.entries {
			o := y.entries[i]
			if e.Key != o.Key || !Equal(e.Value, o.Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
