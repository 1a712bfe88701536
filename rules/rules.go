package rules

import (
	"errors"

	"github.com/jmg8766/Firewall-Simulator/api"
	"github.com/jmg8766/Firewall-Simulator/api/interfaces"
	"github.com/jmg8766/Firewall-Simulator/config"
	"github.com/jmg8766/Firewall-Simulator/transport/packet"
	"github.com/sirupsen/logrus"
)

var _ interfaces.RulesEngine = &Engine{}

var (
	ErrDrop = errors.New("dropped packet due to rule")
)

// NewEngine returns an unconfigured engine. It will not allow any packet
// until Configure succeeds.
func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{
		logger: logger,
	}
}

// Engine evaluates packets against the rule set parsed from a rules
// file. It is immutable once Configure has succeeded and is safe for
// concurrent readers.
type Engine struct {
	logger *logrus.Logger

	localNet  api.IP4
	localMask api.IP4

	blockedTCPPorts map[uint16]struct{}
	blockedAddrs    map[api.IP4]struct{}
	blockEchoReq    bool

	configured bool
}

// Configure parses the rules file at path and installs the resulting
// rule set. On failure the engine stays unusable; no partial rule set is
// ever installed.
func (e *Engine) Configure(path string) error {
	cfg, err := config.LoadRules(path)
	if err != nil {
		return err
	}

	e.localNet = cfg.LocalNet
	e.localMask = api.PrefixMask(cfg.PrefixLen)
	e.blockEchoReq = cfg.BlockPingReq

	// Only membership matters, duplicates in the rules file collapse here.
	e.blockedTCPPorts = make(map[uint16]struct{}, len(cfg.BlockedTCPPorts))
	for _, port := range cfg.BlockedTCPPorts {
		e.blockedTCPPorts[port] = struct{}{}
	}
	e.blockedAddrs = make(map[api.IP4]struct{}, len(cfg.BlockedAddrs))
	for _, addr := range cfg.BlockedAddrs {
		e.blockedAddrs[addr] = struct{}{}
	}

	e.configured = true

	e.logger.WithField("localNet", e.localNet).
		WithField("blockedPorts", len(e.blockedTCPPorts)).
		WithField("blockedAddrs", len(e.blockedAddrs)).
		WithField("blockPingReq", e.blockEchoReq).
		Info("Configured rules engine")
	return nil
}

// Filter examines a parsed packet and returns ErrDrop if it should be
// blocked. Blocked addresses are checked for both directions of traffic;
// the port and echo request rules only apply to inbound packets.
func (e *Engine) Filter(p *packet.Packet) error {
	if _, ok := e.blockedAddrs[p.SrcIP]; ok {
		return ErrDrop
	}
	if _, ok := e.blockedAddrs[p.DstIP]; ok {
		return ErrDrop
	}

	// All outbound packets with unblocked addresses are allowed through.
	if !e.inbound(p.SrcIP, p.DstIP) {
		return nil
	}

	switch p.Protocol {
	case packet.ProtoICMP:
		if e.blockEchoReq && p.IcmpType == packet.IcmpEchoRequest {
			return ErrDrop
		}
	case packet.ProtoTCP:
		if _, ok := e.blockedTCPPorts[p.DstPort]; ok {
			return ErrDrop
		}
	default:
		// No rule category applies to other protocols, but keep them
		// observable.
		e.logger.WithField("protocol", p.Protocol).Debug("no inbound rules for protocol")
	}

	return nil
}

// inbound reports whether a packet is entering the local network from
// the outside: the masked destination matches the local network and the
// masked source does not. Intra-network traffic is not inbound.
func (e *Engine) inbound(src, dst api.IP4) bool {
	local := e.localNet & e.localMask
	return dst&e.localMask == local && src&e.localMask != local
}

// FilterPacket reports whether a raw IP packet is allowed. Packets that
// cannot be parsed are not allowed, and an unconfigured engine allows
// nothing.
func (e *Engine) FilterPacket(data []byte) bool {
	if !e.configured {
		return false
	}

	p := &packet.Packet{}
	if err := packet.ParsePacket(data, p); err != nil {
		e.logger.WithError(err).Debug("Blocking unparseable packet")
		return false
	}

	return e.Filter(p) == nil
}

// Close releases the rule storage. The engine is unusable afterwards.
// Calling Close more than once is harmless.
func (e *Engine) Close() {
	e.configured = false
	e.blockedTCPPorts = nil
	e.blockedAddrs = nil
}
