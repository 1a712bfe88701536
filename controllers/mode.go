package controllers

import (
	"fmt"
	"sync/atomic"
)

// Mode is the enforcement mode applied by the filter controller. It is
// re-read for every packet, so a mode change takes effect on the next
// packet pulled from the input endpoint.
type Mode int32

const (
	// ModeFilter forwards a packet only if the rules engine allows it.
	ModeFilter Mode = iota
	// ModeBlockAll consumes every packet without forwarding it.
	ModeBlockAll
	// ModeAllowAll forwards every packet without consulting the rules.
	ModeAllowAll
)

var modeMap = map[Mode]string{
	ModeFilter:   "filter",
	ModeBlockAll: "block_all",
	ModeAllowAll: "allow_all",
}

func (m Mode) String() string {
	if n, ok := modeMap[m]; ok {
		return n
	}
	return "unknown"
}

func ParseMode(s string) (Mode, error) {
	for m, n := range modeMap {
		if n == s {
			return m, nil
		}
	}
	return ModeFilter, fmt.Errorf("invalid mode: %q", s)
}

// ModeFlag shares the enforcement mode between the operator control
// surface and the filter controller. A single writer updates it; the hot
// path reads it without locking. The value is a small enum stored
// atomically, so readers never observe a torn update.
type ModeFlag struct {
	v atomic.Int32
}

func NewModeFlag(m Mode) *ModeFlag {
	f := &ModeFlag{}
	f.v.Store(int32(m))
	return f
}

func (f *ModeFlag) Set(m Mode) {
	f.v.Store(int32(m))
}

func (f *ModeFlag) Get() Mode {
	return Mode(f.v.Load())
}
