//go:build windows

package stackalloc

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// WindowsAllocator allocates page-aligned regions via VirtualAlloc, with an
// optional leading guard page (PAGE_GUARD).
type WindowsAllocator struct {
	GuardPages bool
}

func pageSizeWindows() uintptr {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return uintptr(info.PageSize)
}

// Allocate implements Allocator.
func (a WindowsAllocator) Allocate(requested uintptr) (Stack, error) {
	pageSize := pageSizeWindows()
	size := pageRound(requested, pageSize)

	addr, err := windows.VirtualAlloc(0, size, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return Stack{}, fmt.Errorf("stackalloc: VirtualAlloc %d bytes: %w", size, err)
	}

	if a.GuardPages {
		var old uint32
		if err := windows.VirtualProtect(addr, pageSize, windows.PAGE_READWRITE|windows.PAGE_GUARD, &old); err != nil {
			_ = windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
			return Stack{}, fmt.Errorf("stackalloc: VirtualProtect guard page: %w", err)
		}
	}

	return Stack{
		Base: addr,
		Size: size,
		Top:  addr + size,
		mem:  nil,
	}, nil
}

// Deallocate implements Allocator.
func (a WindowsAllocator) Deallocate(s Stack) error {
	if s.Base == 0 {
		return ErrAlreadyFreed
	}
	if err := windows.VirtualFree(s.Base, 0, windows.MEM_RELEASE); err != nil {
		return fmt.Errorf("stackalloc: VirtualFree: %w", err)
	}
	return nil
}

// DefaultAllocator is the platform allocator selected for windows targets.
var DefaultAllocator Allocator = WindowsAllocator{GuardPages: false}
