package interfaces

import "github.com/jmg8766/Firewall-Simulator/transport/packet"

// RulesEngine is an interface that defines the behavior of a rules engine
// for deciding the fate of individual network packets.
type RulesEngine interface {
	// Filter examines a parsed packet and returns an error if the
	// packet should be dropped based on the configured rules.
	// If the packet is allowed, the method returns nil.
	Filter(*packet.Packet) error

	// FilterPacket reports whether a raw IP packet is allowed.
	// Packets that cannot be parsed are not allowed.
	FilterPacket(data []byte) bool
}
