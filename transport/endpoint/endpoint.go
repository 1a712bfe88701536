// Package endpoint wraps the byte-stream endpoints the firewall pumps
// packets between, typically the named pipes ToFirewall and FromFirewall.
package endpoint

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// FlushWriter is the write side of the pipeline: forwarded packets are
// flushed after every frame so downstream readers observe them promptly.
type FlushWriter interface {
	io.Writer
	Flush() error
}

// Endpoint is one end of a packet stream backed by a file or named pipe.
// Close is safe to call more than once; the underlying file is released
// exactly once.
type Endpoint struct {
	f    *os.File
	w    *bufio.Writer
	once sync.Once
}

// OpenReader opens the input endpoint for reading. Opening a named pipe
// blocks until a producer opens the other end, same as the write side.
func OpenReader(path string) (*Endpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input endpoint: %w", err)
	}
	return &Endpoint{f: f}, nil
}

// OpenWriter opens the output endpoint for writing, creating a regular
// file if the path does not exist.
func OpenWriter(path string) (*Endpoint, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output endpoint: %w", err)
	}
	return &Endpoint{f: f, w: bufio.NewWriter(f)}, nil
}

func (e *Endpoint) Read(p []byte) (int, error) {
	return e.f.Read(p)
}

func (e *Endpoint) Write(p []byte) (int, error) {
	if e.w == nil {
		return 0, fmt.Errorf("endpoint %s is not open for writing", e.f.Name())
	}
	return e.w.Write(p)
}

func (e *Endpoint) Flush() error {
	if e.w == nil {
		return nil
	}
	return e.w.Flush()
}

func (e *Endpoint) Name() string {
	return e.f.Name()
}

func (e *Endpoint) Close() error {
	var err error
	e.once.Do(func() {
		if e.w != nil {
			err = e.w.Flush()
		}
		if cerr := e.f.Close(); err == nil {
			err = cerr
		}
	})
	return err
}
