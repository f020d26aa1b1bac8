package zbuf

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/bits"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFlipRead(t *testing.T) {
	b := New(0)
	require.NoError(t, b.WriteInt32(114514))
	b.Flip()
	v, err := b.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(114514), v)
}

func TestTypedRoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			b := New(3, WithByteOrder(order))
			require.NoError(t, b.WriteInt8(-8))
			require.NoError(t, b.WriteUint8(200))
			require.NoError(t, b.WriteInt16(-1234))
			require.NoError(t, b.WriteUint16(54321))
			require.NoError(t, b.WriteInt32(math.MinInt32))
			require.NoError(t, b.WriteUint32(math.MaxUint32))
			require.NoError(t, b.WriteInt64(-1<<40))
			require.NoError(t, b.WriteUint64(math.MaxUint64))
			require.NoError(t, b.WriteFloat32(3.25))
			require.NoError(t, b.WriteFloat64(-math.Pi))
			assert.Equal(t, 1+1+2+2+4+4+8+8+4+8, b.Limit())

			b.Flip()
			i8, err := b.ReadInt8()
			require.NoError(t, err)
			assert.Equal(t, int8(-8), i8)
			u8, err := b.ReadUint8()
			require.NoError(t, err)
			assert.Equal(t, uint8(200), u8)
			i16, err := b.ReadInt16()
			require.NoError(t, err)
			assert.Equal(t, int16(-1234), i16)
			u16, err := b.ReadUint16()
			require.NoError(t, err)
			assert.Equal(t, uint16(54321), u16)
			i32, err := b.ReadInt32()
			require.NoError(t, err)
			assert.Equal(t, int32(math.MinInt32), i32)
			u32, err := b.ReadUint32()
			require.NoError(t, err)
			assert.Equal(t, uint32(math.MaxUint32), u32)
			i64, err := b.ReadInt64()
			require.NoError(t, err)
			assert.Equal(t, int64(-1<<40), i64)
			u64, err := b.ReadUint64()
			require.NoError(t, err)
			assert.Equal(t, uint64(math.MaxUint64), u64)
			f32, err := b.ReadFloat32()
			require.NoError(t, err)
			assert.Equal(t, float32(3.25), f32)
			f64, err := b.ReadFloat64()
			require.NoError(t, err)
			assert.Equal(t, -math.Pi, f64)

			_, err = b.ReadInt8()
			assert.True(t, errors.Is(err, ErrEndOfBuffer))
		})
	}
}

func TestByteOrderReinterpret(t *testing.T) {
	const v = uint32(0x01020304)
	b := New(4)
	require.NoError(t, b.WriteUint32(v))
	assert.Equal(t, []byte{4, 3, 2, 1}, b.Bytes())

	b.SetByteOrder(binary.BigEndian)
	got, err := GetAt[uint32](b, 0)
	require.NoError(t, err)
	assert.Equal(t, bits.ReverseBytes32(v), got)
}

func TestSingleByteIgnoresByteOrder(t *testing.T) {
	le := New(1)
	be := New(1, WithByteOrder(binary.BigEndian))
	require.NoError(t, le.WriteUint8(0xab))
	require.NoError(t, be.WriteUint8(0xab))
	assert.Equal(t, le.Bytes(), be.Bytes())
}

func TestReverseWrite(t *testing.T) {
	b := New(8)
	b.SetWriteOrder(Reverse)
	require.NoError(t, b.SetPosition(4))
	require.NoError(t, b.WriteInt32(1000))
	assert.Equal(t, 0, b.Position())
	assert.Equal(t, 4, b.Limit())

	v, err := GetAt[int32](b, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1000), v)

	err = b.WriteInt32(1)
	assert.True(t, errors.Is(err, ErrInvalidOrder))
	assert.Equal(t, 0, b.Position())
}

func TestReverseRead(t *testing.T) {
	b := Wrap([]byte{0xd0, 0x07, 0, 0}, true)
	b.SetReadOrder(Reverse)

	_, err := b.ReadInt32()
	assert.True(t, errors.Is(err, ErrInvalidOrder))

	require.NoError(t, b.SetPosition(4))
	v, err := b.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(2000), v)
	assert.Equal(t, 0, b.Position())
}

func TestStrictTypedRead(t *testing.T) {
	b := Wrap([]byte{1, 2, 3}, true)
	_, err := b.ReadUint32()
	assert.True(t, errors.Is(err, ErrBufferUnderflow))
	assert.Equal(t, 0, b.Position())

	u16, err := b.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), u16)

	b.SetReadOrder(Reverse)
	_, err = b.ReadUint32()
	assert.True(t, errors.Is(err, ErrBufferUnderflow))
	assert.Equal(t, 2, b.Position())
}

func TestPutAtGetAt(t *testing.T) {
	b := New(16, WithByteOrder(binary.BigEndian))
	require.NoError(t, PutAt(b, 8, uint64(0x0102030405060708)))
	assert.Equal(t, 0, b.Position())
	assert.Equal(t, 16, b.Limit())

	v, err := GetAt[uint64](b, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), v)

	b.SetWriteOrder(Reverse)
	require.NoError(t, PutAt(b, 8, int16(-2)))
	b.SetReadOrder(Reverse)
	i16, err := GetAt[int16](b, 8)
	require.NoError(t, err)
	assert.Equal(t, int16(-2), i16)

	b.SetReadOrder(Forward)
	_, err = GetAt[uint32](b, 14)
	assert.True(t, errors.Is(err, ErrBufferUnderflow))
	_, err = GetAt[uint32](b, 16)
	assert.True(t, errors.Is(err, ErrEndOfBuffer))
}

func TestPutGetGeneric(t *testing.T) {
	b := New(0)
	require.NoError(t, Put(b, float32(1.5)))
	require.NoError(t, Put(b, int64(-7)))
	b.Flip()

	f, err := Get[float32](b)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f)
	i, err := Get[int64](b)
	require.NoError(t, err)
	assert.Equal(t, int64(-7), i)

	assert.Equal(t, 1, SizeOf[uint8]())
	assert.Equal(t, 2, SizeOf[int16]())
	assert.Equal(t, 4, SizeOf[float32]())
	assert.Equal(t, 8, SizeOf[float64]())
}

func TestReverseAbsoluteBounds(t *testing.T) {
	writes := []struct {
		name string
		off  int
		want error
	}{
		{"beyond capacity", 6, ErrOutOfRange},
		{"far beyond capacity", 100, ErrOutOfRange},
		{"below width", 2, ErrInvalidOrder},
		{"at zero", 0, ErrInvalidOrder},
	}
	for _, tt := range writes {
		t.Run("write "+tt.name, func(t *testing.T) {
			var out bytes.Buffer
			b := New(4, WithWriteOrder(Reverse), WithSink(&out))
			err := PutAt(b, tt.off, int32(7))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, []int{4, 0, 0}, []int{b.Capacity(), b.Limit(), b.Position()})
			assert.Zero(t, out.Len())
		})
	}

	t.Run("write at capacity", func(t *testing.T) {
		b := New(4, WithWriteOrder(Reverse))
		require.NoError(t, PutAt(b, 4, int32(7)))
		assert.Equal(t, []int{4, 4, 0}, []int{b.Capacity(), b.Limit(), b.Position()})
		v, err := GetAt[int32](b, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(7), v)
	})

	reads := []struct {
		name string
		off  int
		want error
	}{
		{"beyond capacity", 12, ErrOutOfRange},
		{"beyond limit", 6, ErrOutOfRange},
		{"below width", 2, ErrBufferUnderflow},
		{"at zero", 0, ErrInvalidOrder},
	}
	for _, tt := range reads {
		t.Run("read "+tt.name, func(t *testing.T) {
			b := New(8, WithReadOrder(Reverse))
			_, err := b.WriteAt([]byte{1, 0, 0, 0}, 0)
			require.NoError(t, err)

			_, err = GetAt[int32](b, tt.off)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, []int{8, 4, 0}, []int{b.Capacity(), b.Limit(), b.Position()})
		})
	}

	t.Run("read at limit", func(t *testing.T) {
		b := Wrap([]byte{1, 0, 0, 0}, false, WithReadOrder(Reverse))
		v, err := GetAt[int32](b, 4)
		require.NoError(t, err)
		assert.Equal(t, int32(1), v)
	})
}
