package api

import (
	"encoding/binary"
	"fmt"
	"net"
)

// IP4 is an IPv4 address held as a host-independent 32-bit value, the
// first dotted octet occupying the most significant byte.
type IP4 uint32

const maxIPv4StringLen = len("255.255.255.255")

func (ip IP4) String() string {
	b := make([]byte, maxIPv4StringLen)

	n := ubtoa(b, 0, byte(ip>>24))
	b[n] = '.'
	n++

	n += ubtoa(b, n, byte(ip>>16&255))
	b[n] = '.'
	n++

	n += ubtoa(b, n, byte(ip>>8&255))
	b[n] = '.'
	n++

	n += ubtoa(b, n, byte(ip&255))
	return string(b[:n])
}

func (ip IP4) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("\"%s\"", ip.String())), nil
}

func (ip IP4) ToIP() net.IP {
	nip := make(net.IP, 4)
	binary.BigEndian.PutUint32(nip, uint32(ip))
	return nip
}

// Ip2IP4 converts a 4 or 16 byte address slice to an IP4. A 16 byte
// slice is assumed to be an IPv4-mapped address.
func Ip2IP4(ip []byte) IP4 {
	if len(ip) == 16 {
		return IP4(binary.BigEndian.Uint32(ip[12:16]))
	}
	return IP4(binary.BigEndian.Uint32(ip))
}

func ParseIP4(str string) (IP4, error) {
	ip := net.ParseIP(str)
	if ip == nil {
		return 0, fmt.Errorf("invalid IP address: %s", str)
	}
	ipBytes := ip.To4()
	if ipBytes == nil {
		return 0, fmt.Errorf("invalid IPv4 address: %s", str)
	}
	return IP4(binary.BigEndian.Uint32(ipBytes)), nil
}

// PrefixMask returns the contiguous high-order bit mask for a prefix
// length, so PrefixMask(0) == 0 and PrefixMask(32) == 0xffffffff.
func PrefixMask(n int) IP4 {
	if n <= 0 {
		return 0
	}
	if n >= 32 {
		return 0xffffffff
	}
	return IP4(^uint32(0) << (32 - n))
}

// ubtoa encodes the string form of the integer v to dst[offset:] and
// returns the number of bytes written to dst. The caller must ensure
// there is enough space in dst.
func ubtoa(dst []byte, offset int, v byte) int {
	if v < 10 {
		dst[offset] = v + '0'
		return 1
	} else if v < 100 {
		dst[offset+1] = v%10 + '0'
		dst[offset] = v/10 + '0'
		return 2
	}

	dst[offset+2] = v%10 + '0'
	dst[offset+1] = (v/10)%10 + '0'
	dst[offset] = v/100 + '0'
	return 3
}
