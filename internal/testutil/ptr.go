package testutil

// Ptr returns a pointer to v, for the optional fields of update requests
func Ptr[T any](v T) *T {
	return &v
}
