package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/jmg8766/Firewall-Simulator/api"
	"golang.org/x/net/ipv4"
)

const (
	ProtoICMP = 1
	ProtoTCP  = 6
	ProtoUDP  = 17

	IcmpEchoReply   = 0
	IcmpEchoRequest = 8
)

var protocolMap = map[uint8]string{
	ProtoTCP:  "tcp",
	ProtoUDP:  "udp",
	ProtoICMP: "icmp",
}

func TypeName(t uint8) string {
	if n, ok := protocolMap[t]; ok {
		return n
	}

	return "unknown"
}

// Packet holds the header fields the filter cares about, extracted once
// per packet from the raw buffer.
type Packet struct {
	SrcIP    api.IP4
	DstIP    api.IP4
	Protocol uint8
	IcmpType uint8
	DstPort  uint16
}

func (p *Packet) String() string {
	return fmt.Sprintf("SrcIP=%s DstIP=%s Protocol=%s DstPort=%d IcmpType=%d",
		p.SrcIP, p.DstIP, TypeName(p.Protocol), p.DstPort, p.IcmpType)
}

// transport header bytes needed beyond the IP header: enough for the
// ICMP type octet or the TCP destination port at offset 2
const minTransportLen = 4

// ParsePacket extracts the source/destination addresses, protocol and
// the protocol-specific fields used by the rules engine.
func ParsePacket(data []byte, p *Packet) error {
	// Do we at least have an ipv4 header worth of data?
	if len(data) < ipv4.HeaderLen {
		return fmt.Errorf("packet is less than %v bytes", ipv4.HeaderLen)
	}

	// Is it an ipv4 packet?
	if int((data[0]>>4)&0x0f) != 4 {
		return fmt.Errorf("packet is not ipv4, type: %v", int((data[0]>>4)&0x0f))
	}

	// Adjust our start position based on the advertised ip header length
	ihl := int(data[0]&0x0f) << 2

	// Well formed ip header length?
	if ihl < ipv4.HeaderLen {
		return fmt.Errorf("packet had an invalid header length: %v", ihl)
	}

	p.Protocol = data[9]
	p.SrcIP = api.Ip2IP4(data[12:16])
	p.DstIP = api.Ip2IP4(data[16:20])
	p.IcmpType = 0
	p.DstPort = 0

	switch p.Protocol {
	case ProtoICMP:
		if len(data) < ihl+1 {
			return fmt.Errorf("icmp packet is less than %v bytes", ihl+1)
		}
		p.IcmpType = data[ihl]
	case ProtoTCP:
		if len(data) < ihl+minTransportLen {
			return fmt.Errorf("tcp packet is less than %v bytes, ip header len: %v", ihl+minTransportLen, ihl)
		}
		p.DstPort = binary.BigEndian.Uint16(data[ihl+2 : ihl+4])
	}

	return nil
}
