package zbuf

import (
	"syscall"
	"unsafe"
)

// sendmsg writes bs with a single syscall. SIGPIPE is suppressed so a reset
// peer surfaces as EPIPE.
func sendmsg(fd int, bs [][]byte, ivs []syscall.Iovec) (n int, err error) {
	iovLen := iovecs(bs, ivs)
	if iovLen == 0 {
		return 0, nil
	}
	var msghdr = syscall.Msghdr{
		Iov:    &ivs[0],
		Iovlen: uint64(iovLen),
	}
	r, _, e := syscall.Syscall(syscall.SYS_SENDMSG, uintptr(fd), uintptr(unsafe.Pointer(&msghdr)), syscall.MSG_NOSIGNAL)
	resetIovecs(bs, ivs[:iovLen])
	if e != 0 {
		return int(r), syscall.Errno(e)
	}
	return int(r), nil
}

// iovecs fills ivs from the non-empty slices of bs and returns how many were used.
func iovecs(bs [][]byte, ivs []syscall.Iovec) (iovLen int) {
	for i := 0; i < len(bs) && iovLen < len(ivs); i++ {
		if len(bs[i]) == 0 {
			continue
		}
		ivs[iovLen].Base = &bs[i][0]
		ivs[iovLen].SetLen(len(bs[i]))
		iovLen++
	}
	return iovLen
}

func resetIovecs(bs [][]byte, ivs []syscall.Iovec) {
	for i := 0; i < len(bs); i++ {
		bs[i] = nil
	}
	for i := 0; i < len(ivs); i++ {
		ivs[i].Base = nil
	}
}
