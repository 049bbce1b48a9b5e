// Package goid reports the identity of the calling goroutine.
//
// Lock handles record the goroutine that acquired them so that upgrade and
// release from any other goroutine can be rejected. The runtime does not
// export goroutine IDs, so the ID is parsed from the first line of the
// current goroutine's stack trace:
//
//	goroutine 123 [running]:
//
// This costs roughly a microsecond per call, which is negligible next to
// a contended lock acquisition.
package goid

import "runtime"

// Current returns the ID of the calling goroutine, or 0 if it cannot be
// determined. IDs are positive and never reused while the goroutine lives.
func Current() int64 {
	// Only the first line is needed.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

// parse extracts the goroutine ID from stack trace bytes of the form
// "goroutine 123 [running]:...". It returns 0 if the format is invalid.
func parse(buf []byte) int64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}

	var id int64
	digits := 0
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
		digits++
	}

	if digits == 0 {
		return 0
	}
	return id
}
