//go:build unix

package remux

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// tryLockSink takes an advisory exclusive lock on sink if it is backed
// by a regular file (§6 "concurrent writers to the same sink path
// should not corrupt each other's output" — advisory only, since Flock
// cannot stop an uncooperative writer, only a cooperative one). Non-file
// sinks (an in-memory buffer, a pipe, a network connection) are left
// alone; the returned unlock func is always safe to call.
func tryLockSink(sink io.Writer) (unlock func(), err error) {
	f, ok := sink.(*os.File)
	if !ok {
		return func() {}, nil
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return nil, err
	}
	return func() { _ = unix.Flock(int(f.Fd()), unix.LOCK_UN) }, nil
}
