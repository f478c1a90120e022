// Package vector provides a growable sequence with a hard upper bound.
//
// The backing store is allocated once per instance with room for MaxSize
// elements. Capacity grows by doubling inside that store and never shrinks,
// so a Vector never reallocates after construction.
package vector

const (
	// DefaultCapacity is the capacity of an empty vector.
	DefaultCapacity = 4
	// DefaultMaxSize is the element ceiling used by New and From.
	DefaultMaxSize = 128
)

// Vector is a bounded dynamic array. The zero value is an empty vector
// with DefaultCapacity and DefaultMaxSize.
//
// Assigning a Vector copies the header only: both copies share the backing
// store. Use Clone for an independent copy.
type Vector[T any] struct {
	data     []T
	size     int
	capacity int
	maxSize  int
}

// New returns a vector holding size zero values, clamped to DefaultMaxSize.
func New[T any](size int) *Vector[T] {
	return NewWithMax[T](size, DefaultMaxSize)
}

// NewWithMax returns a vector with the given element ceiling holding size zero values.
// A non-positive maxSize falls back to DefaultMaxSize.
func NewWithMax[T any](size, maxSize int) *Vector[T] {
	v := &Vector[T]{}
	v.init(maxSize)
	if size < 0 {
		size = 0
	}
	if size > v.maxSize {
		size = v.maxSize
	}
	v.grow(size)
	v.size = size
	return v
}

// From returns a vector holding the first size elements of values.
// Missing source elements are left as zero values.
func From[T any](size int, values []T) *Vector[T] {
	v := New[T](size)
	copy(v.data[:v.size], values)
	return v
}

func (v *Vector[T]) init(maxSize int) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	v.maxSize = maxSize
	v.capacity = DefaultCapacity
	if v.capacity > maxSize {
		v.capacity = maxSize
	}
	v.data = make([]T, maxSize)
}

func (v *Vector[T]) lazyInit() {
	if v.data == nil {
		v.init(v.maxSize)
	}
}

// grow doubles the capacity until it fits n elements, clamped to maxSize.
func (v *Vector[T]) grow(n int) {
	for v.capacity < n && v.capacity < v.maxSize {
		v.capacity *= 2
		if v.capacity > v.maxSize {
			v.capacity = v.maxSize
		}
	}
}

// PushBack appends value. It is a no-op once the vector holds MaxSize elements.
func (v *Vector[T]) PushBack(value T) {
	v.lazyInit()
	if v.size == v.maxSize {
		return
	}
	v.grow(v.size + 1)
	v.data[v.size] = value
	v.size++
}

// PopBack removes the last element. It is a no-op on an empty vector.
func (v *Vector[T]) PopBack() {
	if v.size == 0 {
		return
	}
	v.size--
}

// Size returns the number of live elements.
func (v *Vector[T]) Size() int {
	return v.size
}

// Capacity returns the number of slots currently reserved.
func (v *Vector[T]) Capacity() int {
	v.lazyInit()
	return v.capacity
}

// MaxSize returns the element ceiling.
func (v *Vector[T]) MaxSize() int {
	v.lazyInit()
	return v.maxSize
}

// Empty reports whether the vector holds no elements.
func (v *Vector[T]) Empty() bool {
	return v.size == 0
}

// At returns the element at index i without checking it against Size.
// Reading a slot at or beyond Size returns whatever the slot last held.
func (v *Vector[T]) At(i int) T {
	v.lazyInit()
	return v.data[i]
}

// Get returns the element at index i and whether i is a live index.
func (v *Vector[T]) Get(i int) (T, bool) {
	if i < 0 || i >= v.size {
		var zero T
		return zero, false
	}
	return v.data[i], true
}

// Set replaces the element at index i. Out of range indexes are ignored.
func (v *Vector[T]) Set(i int, value T) bool {
	if i < 0 || i >= v.size {
		return false
	}
	v.data[i] = value
	return true
}

// Clone returns a vector with its own backing store holding the same
// elements, capacity and element ceiling.
func (v *Vector[T]) Clone() Vector[T] {
	v.lazyInit()
	c := Vector[T]{
		data:     make([]T, v.maxSize),
		size:     v.size,
		capacity: v.capacity,
		maxSize:  v.maxSize,
	}
	copy(c.data, v.data[:v.size])
	return c
}

// Values returns the live elements. The slice aliases the backing store.
func (v *Vector[T]) Values() []T {
	if v.data == nil {
		return nil
	}
	return v.data[:v.size]
}
