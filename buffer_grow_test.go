package zbuf

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countExpands(l *recordLogger) (n int) {
	for _, line := range l.infos {
		if strings.Contains(line, "expand") {
			n++
		}
	}
	return n
}

func TestExpandPreservesBytes(t *testing.T) {
	b := Wrap([]byte("0123456789"), true)
	require.NoError(t, b.SetPosition(4))

	require.NoError(t, b.Expand(7))
	assert.GreaterOrEqual(t, b.Capacity(), 17)
	assert.Equal(t, "0123456789", string(b.st.bytes[:10]))
	assert.Equal(t, make([]byte, b.Capacity()-10), b.st.bytes[10:])
	assert.Equal(t, 4, b.Position())
	assert.Equal(t, 10, b.Limit())
}

func TestExpandPolicy(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		n        int
		want     int
	}{
		{"empty", 0, 4, 4},
		{"double", 100, 10, 200},
		{"large request", 100, 500, 600},
		{"threshold step", growThreshold, 1, 2 * growThreshold},
		{"above threshold", 3 * growThreshold, 16, 4 * growThreshold},
		{"above threshold large request", growThreshold, 3 * growThreshold, 4 * growThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.capacity)
			require.NoError(t, b.Expand(tt.n))
			assert.Equal(t, tt.want, b.Capacity())
			assert.GreaterOrEqual(t, b.Capacity(), tt.capacity+tt.n)
		})
	}
}

func TestExpandMaxCapacity(t *testing.T) {
	b := New(10, WithMaxCapacity(16))
	require.NoError(t, b.Expand(4))
	assert.Equal(t, 16, b.Capacity())

	err := b.Expand(1)
	assert.True(t, errors.Is(err, ErrBufferOverflow))
	assert.Equal(t, 16, b.Capacity())

	b.SetWriteOrder(Forward)
	require.NoError(t, b.SetPosition(16))
	assert.True(t, errors.Is(b.WriteByte(1), ErrBufferOverflow))
	assert.Equal(t, 16, b.Position())
}

func TestExpandBorrowed(t *testing.T) {
	b := Wrap(make([]byte, 4), false)
	err := b.Expand(4)
	assert.True(t, errors.Is(err, ErrInvalidOwnership))
	assert.Equal(t, 4, b.Capacity())
}

func TestExpandNegative(t *testing.T) {
	assert.True(t, errors.Is(New(4).Expand(-1), ErrOutOfRange))
}

func TestWriteGrowsOnce(t *testing.T) {
	l := &recordLogger{}
	b := New(0, WithLogger(l))
	require.NoError(t, b.WriteInt32(1))
	assert.Equal(t, 1, countExpands(l))
	assert.GreaterOrEqual(t, b.Capacity(), 4)

	big := make([]byte, 3*growThreshold)
	_, err := b.Write(big)
	require.NoError(t, err)
	assert.Equal(t, 2, countExpands(l))
	assert.GreaterOrEqual(t, b.Capacity(), 4+len(big))
}
