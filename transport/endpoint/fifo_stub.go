//go:build !unix

package endpoint

import "fmt"

func Mkfifo(path string) error {
	return fmt.Errorf("named pipes are not supported on this platform")
}
