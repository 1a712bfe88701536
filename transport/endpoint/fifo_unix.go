//go:build unix

package endpoint

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Mkfifo creates the named pipe at path if it does not already exist.
func Mkfifo(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := unix.Mkfifo(path, 0666); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("mkfifo %s: %w", path, err)
	}
	return nil
}
