package netmap

/*
#include <errno.h>
*/
import "C"

import "syscall"

// errnoCause reads the C errno left by the last failed cgo call, in
// the same spirit as yerden-go-snf's retErr/syscall.Errno bridge
// between the C return convention and Go errors.
func errnoCause() error {
	errno := C.errno
	if errno == 0 {
		return syscall.EINVAL
	}
	return syscall.Errno(errno)
}
