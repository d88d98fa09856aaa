package stackalloc

import "unsafe"

// unsafePointer returns the address backing a non-empty byte slice. It
// exists only to keep the single unsafe conversion in one place.
func unsafePointer(mem []byte) unsafe.Pointer {
	if len(mem) == 0 {
		return nil
	}
	return unsafe.Pointer(&mem[0])
}
