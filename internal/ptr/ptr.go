// Package ptr has helpers for optional fields.
package ptr

// Ref returns a pointer to v.
func Ref[T any](v T) *T {
	return &v
}

// Deref returns *p, or def when p is nil.
func Deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
