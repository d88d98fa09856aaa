//go:build linux || darwin

package stackalloc

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// UnixAllocator allocates anonymous, page-aligned regions via mmap, with an
// optional leading guard page installed via mprotect(PROT_NONE).
type UnixAllocator struct {
	GuardPages bool
}

func pageSizeUnix() uintptr {
	return uintptr(unix.Getpagesize())
}

// Allocate implements Allocator.
func (a UnixAllocator) Allocate(requested uintptr) (Stack, error) {
	pageSize := pageSizeUnix()
	size := pageRound(requested, pageSize)

	mem, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return Stack{}, fmt.Errorf("stackalloc: mmap %d bytes: %w", size, err)
	}

	if a.GuardPages {
		// The guard page sits at the low address: stacks grow down on every
		// platform this module targets, so the first page traps overflow.
		if err := unix.Mprotect(mem[:pageSize], unix.PROT_NONE); err != nil {
			_ = unix.Munmap(mem)
			return Stack{}, fmt.Errorf("stackalloc: mprotect guard page: %w", err)
		}
	}

	base := uintptr(unsafePointer(mem))
	return Stack{
		Base: base,
		Size: size,
		Top:  base + size,
		mem:  mem,
	}, nil
}

// Deallocate implements Allocator.
func (a UnixAllocator) Deallocate(s Stack) error {
	if s.mem == nil {
		return ErrAlreadyFreed
	}
	if err := unix.Munmap(s.mem); err != nil {
		return fmt.Errorf("stackalloc: munmap: %w", err)
	}
	return nil
}

// DefaultAllocator is the platform allocator selected for unix targets.
var DefaultAllocator Allocator = UnixAllocator{GuardPages: false}
