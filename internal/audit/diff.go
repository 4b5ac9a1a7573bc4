// Package audit records per-field change history for movements.
package audit

// Field declares one audited attribute of T and how to render it as text.
type Field[T any] struct {
	Name  string
	Value func(T) string
}

// Change is one field's before and after rendering.
type Change struct {
	Field string
	Old   string
	New   string
}

// Diff renders every touched field of before and after, in the order fields
// are declared. Fields whose values render identically are still returned
// when touched.
func Diff[T any](fields []Field[T], before, after T, touched map[string]bool) []Change {
	var changes []Change
	for _, f := range fields {
		if !touched[f.Name] {
			continue
		}
		changes = append(changes, Change{
			Field: f.Name,
			Old:   f.Value(before),
			New:   f.Value(after),
		})
	}
	return changes
}
