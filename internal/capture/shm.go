package capture

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrNoFrame is returned when the producer wrote nothing.
var ErrNoFrame = errors.New("capture produced no frame")

// newMemfd creates an anonymous shared-memory file.
func newMemfd(name string) (*os.File, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("failed to create memfd: %w", err)
	}
	return os.NewFile(uintptr(fd), name), nil
}

// mapping is a read-only view of a memfd.
type mapping struct {
	data []byte
}

// mapReadOnly maps the whole file. The caller must call unmap.
func mapReadOnly(f *os.File) (*mapping, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return nil, fmt.Errorf("failed to stat memfd: %w", err)
	}
	if st.Size == 0 {
		return nil, ErrNoFrame
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to map memfd: %w", err)
	}
	return &mapping{data: data}, nil
}

func (m *mapping) unmap() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}
