package controllers

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmg8766/Firewall-Simulator/rules"
	"github.com/jmg8766/Firewall-Simulator/transport/wire"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flushBuffer adapts bytes.Buffer to the pipeline's write side.
type flushBuffer struct {
	bytes.Buffer
}

func (f *flushBuffer) Flush() error { return nil }

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard
	return logger
}

func newTestEngine(t *testing.T, rulesContent string) *rules.Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "firewall.conf")
	require.NoError(t, os.WriteFile(path, []byte(rulesContent), 0644))

	e := rules.NewEngine(testLogger())
	require.NoError(t, e.Configure(path))
	return e
}

// rawTCP builds a minimal IPv4+TCP buffer at the fixed offsets the
// parser reads.
func rawTCP(src, dst [4]byte, dstPort uint16) []byte {
	data := make([]byte, 24)
	data[0] = 0x45
	data[9] = 6
	copy(data[12:16], src[:])
	copy(data[16:20], dst[:])
	binary.BigEndian.PutUint16(data[22:24], dstPort)
	return data
}

func frames(t *testing.T, payloads ...[]byte) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	for _, p := range payloads {
		require.NoError(t, wire.WriteFrame(buf, p))
	}
	return buf
}

func readAllFrames(t *testing.T, r io.Reader) [][]byte {
	t.Helper()
	var out [][]byte
	buf := make([]byte, wire.MaxPacketLen)
	for {
		n, err := wire.ReadFrame(r, buf)
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, append([]byte(nil), buf[:n]...))
	}
}

func TestFilterModeIdentity(t *testing.T) {
	// No blocked ports or addresses and echo blocking off: filtering is
	// the identity function on the stream.
	engine := newTestEngine(t, "LOCAL_NET:10.0.0.0/8\n")

	pkts := [][]byte{
		rawTCP([4]byte{172, 16, 0, 1}, [4]byte{10, 1, 2, 3}, 80),
		rawTCP([4]byte{10, 1, 2, 3}, [4]byte{172, 16, 0, 1}, 23),
	}
	in := frames(t, pkts...)
	want := append([]byte(nil), in.Bytes()...)

	out := &flushBuffer{}
	fc := NewFilterController(testLogger(), engine, NewModeFlag(ModeFilter), in, out, 0)
	require.NoError(t, fc.Start(context.Background()))

	assert.Equal(t, want, out.Bytes())
}

func TestFilterModeDropsBlocked(t *testing.T) {
	engine := newTestEngine(t, `LOCAL_NET:10.0.0.0/8
BLOCK_INBOUND_TCP_PORT:23
`)

	blocked := rawTCP([4]byte{172, 16, 0, 1}, [4]byte{10, 1, 2, 3}, 23)
	allowed := rawTCP([4]byte{172, 16, 0, 1}, [4]byte{10, 1, 2, 3}, 80)
	in := frames(t, blocked, allowed)

	out := &flushBuffer{}
	fc := NewFilterController(testLogger(), engine, NewModeFlag(ModeFilter), in, out, 0)
	require.NoError(t, fc.Start(context.Background()))

	got := readAllFrames(t, out)
	require.Len(t, got, 1)
	assert.Equal(t, allowed, got[0])
}

func TestBlockAllDropsEverything(t *testing.T) {
	engine := newTestEngine(t, "LOCAL_NET:10.0.0.0/8\n")

	in := frames(t,
		rawTCP([4]byte{172, 16, 0, 1}, [4]byte{10, 1, 2, 3}, 80),
		[]byte("not even a packet"),
		nil,
	)

	out := &flushBuffer{}
	fc := NewFilterController(testLogger(), engine, NewModeFlag(ModeBlockAll), in, out, 0)
	require.NoError(t, fc.Start(context.Background()))

	assert.Zero(t, out.Len())
}

func TestAllowAllForwardsEverything(t *testing.T) {
	engine := newTestEngine(t, `LOCAL_NET:10.0.0.0/8
BLOCK_INBOUND_TCP_PORT:80
`)

	// Content the rules would block, and content that does not even
	// parse: allow_all never consults the rules.
	pkts := [][]byte{
		rawTCP([4]byte{172, 16, 0, 1}, [4]byte{10, 1, 2, 3}, 80),
		[]byte("garbage"),
	}
	in := frames(t, pkts...)

	out := &flushBuffer{}
	fc := NewFilterController(testLogger(), engine, NewModeFlag(ModeAllowAll), in, out, 0)
	require.NoError(t, fc.Start(context.Background()))

	got := readAllFrames(t, out)
	require.Len(t, got, 2)
	assert.Equal(t, pkts[0], got[0])
	assert.Equal(t, pkts[1], got[1])
}

func TestModeIsReadPerPacket(t *testing.T) {
	engine := newTestEngine(t, "LOCAL_NET:10.0.0.0/8\n")
	mode := NewModeFlag(ModeBlockAll)
	out := &flushBuffer{}
	fc := NewFilterController(testLogger(), engine, mode, &bytes.Buffer{}, out, 0)

	pkt := rawTCP([4]byte{172, 16, 0, 1}, [4]byte{10, 1, 2, 3}, 80)

	require.NoError(t, fc.consumePacket(pkt))
	assert.Zero(t, out.Len(), "block_all must drop")

	mode.Set(ModeAllowAll)
	require.NoError(t, fc.consumePacket(pkt))
	got := readAllFrames(t, out)
	require.Len(t, got, 1)
	assert.Equal(t, pkt, got[0])
}

func TestStartEndsCleanlyOnEOF(t *testing.T) {
	engine := newTestEngine(t, "LOCAL_NET:10.0.0.0/8\n")
	fc := NewFilterController(testLogger(), engine, NewModeFlag(ModeFilter), &bytes.Buffer{}, &flushBuffer{}, 0)

	assert.NoError(t, fc.Start(context.Background()))
}

func TestStartObservesCancellation(t *testing.T) {
	engine := newTestEngine(t, "LOCAL_NET:10.0.0.0/8\n")
	in := frames(t, rawTCP([4]byte{172, 16, 0, 1}, [4]byte{10, 1, 2, 3}, 80))
	out := &flushBuffer{}
	fc := NewFilterController(testLogger(), engine, NewModeFlag(ModeFilter), in, out, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, fc.Start(ctx))
	assert.Zero(t, out.Len(), "no packet may be processed after cancellation")
}

func TestOversizeFrameFailsWorker(t *testing.T) {
	engine := newTestEngine(t, "LOCAL_NET:10.0.0.0/8\n")

	in := &bytes.Buffer{}
	var prefix [wire.PrefixLen]byte
	binary.NativeEndian.PutUint32(prefix[:], wire.MaxPacketLen+1)
	in.Write(prefix[:])

	fc := NewFilterController(testLogger(), engine, NewModeFlag(ModeFilter), in, &flushBuffer{}, 0)
	assert.ErrorIs(t, fc.Start(context.Background()), wire.ErrOversize)
}
