//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/labtrail/labtrail/internal/errors"
)

// openFileNoFollow opens a file for writing with O_NOFOLLOW so a symlink as
// the final path component is rejected. O_CLOEXEC prevents FD leaks across
// exec. Directory components are covered by ValidatePath, which requires
// files to sit directly in an allowed directory.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot write to symlink")
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}

// openFileNoFollowRead opens a file for reading with O_NOFOLLOW and O_CLOEXEC,
// with the same final-component symlink rule as openFileNoFollow.
func openFileNoFollowRead(path string) (*os.File, error) {
	fd, err := syscall.Open(path, syscall.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, 0)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot read from symlink")
		}
		if stderrors.Is(err, syscall.ENOENT) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
