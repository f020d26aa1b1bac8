package zbuf

import (
	"math"

	"github.com/pkg/errors"
)

// growThreshold is the capacity from which growth proceeds in fixed steps
// instead of doubling.
const growThreshold = 128 * 1024

// Expand grows the storage to at least Capacity()+n bytes. All bytes in
// [0, Capacity()) keep their offsets. Borrowed storage cannot grow.
func (b *Buffer) Expand(n int) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	return b.expand(n)
}

func (b *Buffer) expand(n int) error {
	if n < 0 {
		return errors.Wrapf(ErrOutOfRange, "expand by %d", n)
	}
	if n == 0 {
		return nil
	}
	if b.st.own != Owned {
		return errors.Wrapf(ErrInvalidOwnership, "expand %s buffer by %d", b.st.own, n)
	}
	old := b.Capacity()
	next, err := b.nextCapacity(n)
	if err != nil {
		return err
	}
	st := allocStorage(next)
	copy(st.bytes, b.st.bytes)
	if err = b.st.free(); err != nil {
		return err
	}
	b.st = st
	b.o.logger.Infof("zbuf: expand %d -> %d (need %d)", old, next, n)
	return nil
}

// nextCapacity doubles small buffers and steps large ones by growThreshold,
// never less than the requested n.
func (b *Buffer) nextCapacity(n int) (int, error) {
	c := b.Capacity()
	if c > math.MaxInt-n {
		return 0, errors.Wrapf(ErrBufferOverflow, "capacity %d + %d overflows", c, n)
	}
	step := c
	if c >= growThreshold {
		step = growThreshold
	}
	if step < n {
		step = n
	}
	if c > math.MaxInt-step {
		step = math.MaxInt - c
	}
	next := c + step
	if max := b.o.maxCapacity; max > 0 && next > max {
		if c+n > max {
			return 0, errors.Wrapf(ErrBufferOverflow, "capacity %d + %d exceeds max %d", c, n, max)
		}
		next = max
	}
	return next, nil
}

// ensure makes [off, off+n) addressable, growing at most once.
func (b *Buffer) ensure(off, n int) error {
	if off > math.MaxInt-n {
		return errors.Wrapf(ErrBufferOverflow, "offset %d + %d overflows", off, n)
	}
	if end := off + n; end > b.Capacity() {
		return b.expand(end - b.Capacity())
	}
	return nil
}
