package zbuf

import (
	"encoding/binary"
	"math"
)

// Fixed lists the fixed-width numbers the typed codec understands.
type Fixed interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

// SizeOf returns the encoded width of T in bytes.
func SizeOf[T Fixed]() int {
	var v T
	switch any(v).(type) {
	case int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	default:
		return 8
	}
}

func encode[T Fixed](order binary.ByteOrder, dst []byte, v T) {
	switch x := any(v).(type) {
	case int8:
		dst[0] = byte(x)
	case uint8:
		dst[0] = x
	case int16:
		order.PutUint16(dst, uint16(x))
	case uint16:
		order.PutUint16(dst, x)
	case int32:
		order.PutUint32(dst, uint32(x))
	case uint32:
		order.PutUint32(dst, x)
	case float32:
		order.PutUint32(dst, math.Float32bits(x))
	case int64:
		order.PutUint64(dst, uint64(x))
	case uint64:
		order.PutUint64(dst, x)
	case float64:
		order.PutUint64(dst, math.Float64bits(x))
	}
}

// decode copies src into a local value of T; src needs SizeOf[T] bytes.
func decode[T Fixed](order binary.ByteOrder, src []byte) T {
	var v T
	switch p := any(&v).(type) {
	case *int8:
		*p = int8(src[0])
	case *uint8:
		*p = src[0]
	case *int16:
		*p = int16(order.Uint16(src))
	case *uint16:
		*p = order.Uint16(src)
	case *int32:
		*p = int32(order.Uint32(src))
	case *uint32:
		*p = order.Uint32(src)
	case *float32:
		*p = math.Float32frombits(order.Uint32(src))
	case *int64:
		*p = int64(order.Uint64(src))
	case *uint64:
		*p = order.Uint64(src)
	case *float64:
		*p = math.Float64frombits(order.Uint64(src))
	}
	return v
}

// Put writes v at the cursor in the write order and byte order of b.
func Put[T Fixed](b *Buffer, v T) error {
	var scratch [8]byte
	n := SizeOf[T]()
	encode(b.o.byteOrder, scratch[:n], v)
	return b.write(scratch[:n])
}

// Get reads a T at the cursor in the read order and byte order of b.
// It is strict: a short read fails with ErrBufferUnderflow and consumes nothing.
func Get[T Fixed](b *Buffer) (T, error) {
	n := SizeOf[T]()
	p, err := b.take(n, n, true)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](b.o.byteOrder, p), nil
}

// PutAt writes v relative to off without moving the cursor: at
// [off, off+n) for forward order, at [off-n, off) for reverse.
func PutAt[T Fixed](b *Buffer, off int, v T) error {
	var scratch [8]byte
	n := SizeOf[T]()
	encode(b.o.byteOrder, scratch[:n], v)
	return b.writeAt(off, scratch[:n], b.o.writeOrder)
}

// GetAt is the strict absolute counterpart of Get.
func GetAt[T Fixed](b *Buffer, off int) (T, error) {
	p, err := b.peekAt(off, SizeOf[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](b.o.byteOrder, p), nil
}

func (b *Buffer) WriteInt8(v int8) error       { return Put(b, v) }
func (b *Buffer) WriteUint8(v uint8) error     { return Put(b, v) }
func (b *Buffer) WriteInt16(v int16) error     { return Put(b, v) }
func (b *Buffer) WriteUint16(v uint16) error   { return Put(b, v) }
func (b *Buffer) WriteInt32(v int32) error     { return Put(b, v) }
func (b *Buffer) WriteUint32(v uint32) error   { return Put(b, v) }
func (b *Buffer) WriteInt64(v int64) error     { return Put(b, v) }
func (b *Buffer) WriteUint64(v uint64) error   { return Put(b, v) }
func (b *Buffer) WriteFloat32(v float32) error { return Put(b, v) }
func (b *Buffer) WriteFloat64(v float64) error { return Put(b, v) }

func (b *Buffer) ReadInt8() (int8, error)       { return Get[int8](b) }
func (b *Buffer) ReadUint8() (uint8, error)     { return Get[uint8](b) }
func (b *Buffer) ReadInt16() (int16, error)     { return Get[int16](b) }
func (b *Buffer) ReadUint16() (uint16, error)   { return Get[uint16](b) }
func (b *Buffer) ReadInt32() (int32, error)     { return Get[int32](b) }
func (b *Buffer) ReadUint32() (uint32, error)   { return Get[uint32](b) }
func (b *Buffer) ReadInt64() (int64, error)     { return Get[int64](b) }
func (b *Buffer) ReadUint64() (uint64, error)   { return Get[uint64](b) }
func (b *Buffer) ReadFloat32() (float32, error) { return Get[float32](b) }
func (b *Buffer) ReadFloat64() (float64, error) { return Get[float64](b) }
