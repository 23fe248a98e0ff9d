package pkg

// Ptr returns a pointer to v. Useful for literals in tests and optional
// struct fields.
func Ptr[T any](v T) *T {
	return &v
}
