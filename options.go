package zbuf

import (
	"encoding/binary"
	"io"
)

// Option configures a Buffer.
type Option func(o *options)

type options struct {
	readOrder   Order
	writeOrder  Order
	byteOrder   binary.ByteOrder
	maxCapacity int
	fillSize    int
	writeHook   WriteHook
	readHook    ReadHook
	sink        io.Writer
	source      io.Reader
	logger      Logger
}

func defaultOptions() options {
	return options{
		readOrder:  Forward,
		writeOrder: Forward,
		byteOrder:  binary.LittleEndian,
		fillSize:   block4k,
		logger:     nopLogger,
	}
}

func WithReadOrder(order Order) Option {
	return func(o *options) {
		o.readOrder = order
	}
}

func WithWriteOrder(order Order) Option {
	return func(o *options) {
		o.writeOrder = order
	}
}

// WithByteOrder selects the byte order of multi-byte typed values.
// The default is little endian.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(o *options) {
		if order != nil {
			o.byteOrder = order
		}
	}
}

// WithMaxCapacity caps growth. Zero means unbounded.
func WithMaxCapacity(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxCapacity = n
		}
	}
}

// WithFillSize sets the minimum chunk requested from a source per fill.
func WithFillSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.fillSize = n
		}
	}
}

func WithWriteHook(hook WriteHook) Option {
	return func(o *options) {
		o.writeHook = hook
	}
}

func WithReadHook(hook ReadHook) Option {
	return func(o *options) {
		o.readHook = hook
	}
}

// WithSink flushes every successful write to w.
func WithSink(w io.Writer) Option {
	return func(o *options) {
		o.sink = w
	}
}

// WithSource tops the buffer up from r when a forward read finds too few bytes.
// Bytes behind the cursor may be dropped before a fill, shifting the absolute
// offsets of what remains to the front.
func WithSource(r io.Reader) Option {
	return func(o *options) {
		o.source = r
	}
}

func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
