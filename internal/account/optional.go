package account

// Field is a tri-state optional used by state patches: unset fields leave
// the stored value untouched, set-to-nil clears it, set-to-value replaces
// it. This distinction is what makes partial upserts safe.
type Field[T any] struct {
	set   bool
	value *T
}

// Set returns a field carrying a value.
func Set[T any](v T) Field[T] {
	return Field[T]{set: true, value: &v}
}

// Clear returns a field that explicitly clears the stored value.
func Clear[T any]() Field[T] {
	return Field[T]{set: true}
}

// IsSet reports whether the field was provided at all.
func (f Field[T]) IsSet() bool {
	return f.set
}

// Value returns the carried value; nil means an explicit clear.
func (f Field[T]) Value() *T {
	return f.value
}
