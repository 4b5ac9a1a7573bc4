package audit

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	Amount int
	Note   string
	Name   string
}

var itemFields = []Field[item]{
	{Name: "monto", Value: func(i item) string { return strconv.Itoa(i.Amount) }},
	{Name: "nota", Value: func(i item) string { return i.Note }},
	{Name: "nombre", Value: func(i item) string { return i.Name }},
}

func TestDiff(t *testing.T) {
	before := item{Amount: 100, Note: "a", Name: "x"}

	t.Run("one touched field yields one change", func(t *testing.T) {
		after := before
		after.Amount = 150

		changes := Diff(itemFields, before, after, map[string]bool{"monto": true})
		require.Equal(t, []Change{{Field: "monto", Old: "100", New: "150"}}, changes)
	})

	t.Run("two touched fields follow declaration order", func(t *testing.T) {
		after := item{Amount: 150, Note: "b", Name: "x"}

		changes := Diff(itemFields, before, after, map[string]bool{"nota": true, "monto": true})
		require.Len(t, changes, 2)
		require.Equal(t, "monto", changes[0].Field)
		require.Equal(t, "nota", changes[1].Field)
	})

	t.Run("touched but unchanged fields are kept", func(t *testing.T) {
		changes := Diff(itemFields, before, before, map[string]bool{"nombre": true})
		require.Equal(t, []Change{{Field: "nombre", Old: "x", New: "x"}}, changes)
	})

	t.Run("untouched changes are ignored", func(t *testing.T) {
		after := item{Amount: 999, Note: "z", Name: "y"}
		require.Empty(t, Diff(itemFields, before, after, nil))
	})
}

func TestEntries(t *testing.T) {
	entries := Entries(7, 3, []Change{{Field: "monto", Old: "1", New: "2"}})
	require.Len(t, entries, 1)
	require.Equal(t, 7, entries[0].MovementID)
	require.Equal(t, 3, entries[0].UserID)
	require.Equal(t, "monto", entries[0].Field)
	require.Equal(t, "1", entries[0].OldValue)
	require.Equal(t, "2", entries[0].NewValue)
}
