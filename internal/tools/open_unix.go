//go:build linux || darwin || freebsd || netbsd || openbsd

package tools

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	apperrors "reviewkit/internal/errors"
)

// openNoFollow opens abs read-only and refuses a symlink in the final
// segment, closing the window between the symlink check and the open.
func openNoFollow(abs, rel string) (*os.File, error) {
	fd, err := unix.Open(abs, unix.O_RDONLY|unix.O_NOFOLLOW|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
	if err != nil {
		if errors.Is(err, unix.ELOOP) {
			return nil, apperrors.Newf(apperrors.CodeSymlinkRejected, "%s is a symbolic link", rel)
		}
		return nil, apperrors.FromFS(rel, err)
	}
	return os.NewFile(uintptr(fd), abs), nil
}
