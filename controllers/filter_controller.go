package controllers

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/jmg8766/Firewall-Simulator/api/interfaces"
	"github.com/jmg8766/Firewall-Simulator/transport/endpoint"
	"github.com/jmg8766/Firewall-Simulator/transport/wire"
	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
)

var _ interfaces.Runnable = &FilterController{}

// FilterController pumps length-prefixed packets from the input endpoint
// to the output endpoint, consulting the rules engine according to the
// current enforcement mode.
type FilterController struct {
	logger *logrus.Logger
	rules  interfaces.RulesEngine
	mode   *ModeFlag

	in        io.Reader
	out       endpoint.FlushWriter
	maxPacket int

	closed atomic.Bool

	received  metrics.Counter
	forwarded metrics.Counter
	dropped   metrics.Counter
}

func NewFilterController(logger *logrus.Logger, rules interfaces.RulesEngine, mode *ModeFlag, in io.Reader, out endpoint.FlushWriter, maxPacket int) *FilterController {
	if maxPacket <= 0 || maxPacket > wire.MaxPacketLen {
		maxPacket = wire.MaxPacketLen
	}
	return &FilterController{
		logger:    logger,
		rules:     rules,
		mode:      mode,
		in:        in,
		out:       out,
		maxPacket: maxPacket,
		received:  metrics.GetOrRegisterCounter("firewall.packets.received", nil),
		forwarded: metrics.GetOrRegisterCounter("firewall.packets.forwarded", nil),
		dropped:   metrics.GetOrRegisterCounter("firewall.packets.dropped", nil),
	}
}

// Start runs the forwarding loop until the input endpoint is exhausted,
// the context is cancelled or an endpoint fails. Reaching end-of-stream
// is not an error. Cancellation is only observed at packet boundaries so
// a frame is never left half-written.
func (fc *FilterController) Start(ctx context.Context) error {
	buf := make([]byte, fc.maxPacket)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := wire.ReadFrame(fc.in, buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fc.logger.Info("Input endpoint closed, stopping filter worker")
				return nil
			}
			if fc.closed.Load() {
				// Shutdown pulled the endpoint out from under the read.
				return nil
			}
			return err
		}
		fc.received.Inc(1)

		if err := fc.consumePacket(buf[:n]); err != nil {
			return err
		}
	}
}

// consumePacket applies the current mode to one packet and forwards it
// when allowed. A write or flush failure is fatal to the worker.
func (fc *FilterController) consumePacket(data []byte) error {
	switch fc.mode.Get() {
	case ModeBlockAll:
		fc.dropped.Inc(1)
		return nil
	case ModeAllowAll:
		// The rules engine is not consulted.
	default:
		if !fc.rules.FilterPacket(data) {
			fc.dropped.Inc(1)
			fc.logger.WithField("len", len(data)).Debug("Dropped packet due to rule")
			return nil
		}
	}

	if err := wire.WriteFrame(fc.out, data); err != nil {
		return err
	}
	if err := fc.out.Flush(); err != nil {
		return err
	}
	fc.forwarded.Inc(1)
	return nil
}

// Close marks the controller as shutting down so a read failure caused
// by closing the input endpoint is not treated as an endpoint error.
func (fc *FilterController) Close() {
	fc.closed.Store(true)
}
