package idx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewProducesValidULIDs(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()

	require.False(t, a.IsZero())
	require.Len(t, a.String(), 26)
	require.NotEqual(t, a, b, "consecutive IDs must differ")
}

func TestNewIsMonotonicWithinSameMillisecond(t *testing.T) {
	t.Parallel()

	prev := New()
	for range 100 {
		next := New()
		require.Greater(t, next.String(), prev.String())
		prev = next
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	id := New()
	parsed, err := Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	_, err = Parse("")
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Parse("not-a-ulid")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestTimeRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id := NewAt(at)
	require.Equal(t, at.UnixMilli(), id.Time().UnixMilli())

	require.True(t, Zero.Time().IsZero())
}
