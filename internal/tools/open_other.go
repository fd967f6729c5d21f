//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package tools

import (
	"io/fs"
	"os"

	apperrors "reviewkit/internal/errors"
)

// openNoFollow opens abs read-only after checking that its final segment
// is not a symlink.
func openNoFollow(abs, rel string) (*os.File, error) {
	info, err := os.Lstat(abs)
	if err != nil {
		return nil, apperrors.FromFS(rel, err)
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return nil, apperrors.Newf(apperrors.CodeSymlinkRejected, "%s is a symbolic link", rel)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, apperrors.FromFS(rel, err)
	}
	return f, nil
}
