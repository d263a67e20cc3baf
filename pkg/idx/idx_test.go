package idx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("ids are valid and unique", func(t *testing.T) {
		a := New()
		b := New()
		require.NotEqual(t, a, b)

		_, err := Parse(a.String())
		require.NoError(t, err)
	})

	t.Run("ids generated in order sort in order", func(t *testing.T) {
		earlier := NewAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		later := NewAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
		require.Less(t, earlier.String(), later.String())
	})
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty and malformed input", func(t *testing.T) {
		_, err := Parse("")
		require.ErrorIs(t, err, ErrInvalid)

		_, err = Parse("not-a-ulid")
		require.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("round-trips a generated id", func(t *testing.T) {
		at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
		id := NewAt(at)

		parsed, err := Parse(id.String())
		require.NoError(t, err)
		require.Equal(t, id, parsed)
		require.Equal(t, at.Truncate(time.Millisecond), parsed.Time())
	})

	t.Run("embedded timestamp is located in UTC", func(t *testing.T) {
		id := NewAt(time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC))
		require.Equal(t, time.UTC, id.Time().Location())
	})
}
