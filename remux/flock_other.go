//go:build !unix

package remux

import "io"

// tryLockSink is a no-op outside unix: advisory locking has no portable
// equivalent worth wiring here, and the remux still works correctly for
// a single writer without it.
func tryLockSink(sink io.Writer) (unlock func(), err error) {
	return func() {}, nil
}
