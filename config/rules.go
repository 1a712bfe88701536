package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jmg8766/Firewall-Simulator/api"
)

var (
	// ErrNotFound is returned when the rules file cannot be read.
	ErrNotFound = errors.New("rules file not found")
	// ErrInvalid is returned for a malformed directive or a rules file
	// that never sets LOCAL_NET.
	ErrInvalid = errors.New("invalid rules file")
)

// Rules is the parsed form of a firewall rules file: one directive per
// line, keyword and argument separated by ':'.
//
//	LOCAL_NET:192.168.1.0/24
//	BLOCK_INBOUND_TCP_PORT:23
//	BLOCK_PING_REQ
//	BLOCK_IP_ADDR:8.8.8.8
type Rules struct {
	LocalNet        api.IP4
	PrefixLen       int
	BlockedTCPPorts []uint16
	BlockedAddrs    []api.IP4
	BlockPingReq    bool
}

// LoadRules reads and parses a firewall rules file. Parsing stops at the
// first malformed line; a partially parsed result is never returned.
func LoadRules(filename string) (*Rules, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	defer f.Close()

	r := &Rules{}
	seenLocalNet := false

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		keyword, arg, _ := strings.Cut(line, ":")
		switch keyword {
		case "LOCAL_NET":
			if seenLocalNet {
				return nil, fmt.Errorf("%w: line %d: duplicate LOCAL_NET", ErrInvalid, lineNum)
			}
			seenLocalNet = true
			addr, prefixLen, err := parseLocalNet(arg)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalid, lineNum, err)
			}
			r.LocalNet = addr
			r.PrefixLen = prefixLen

		case "BLOCK_INBOUND_TCP_PORT":
			port, err := strconv.ParseUint(arg, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: invalid tcp port %q", ErrInvalid, lineNum, arg)
			}
			r.BlockedTCPPorts = append(r.BlockedTCPPorts, uint16(port))

		case "BLOCK_PING_REQ":
			r.BlockPingReq = true

		case "BLOCK_IP_ADDR":
			addr, err := api.ParseIP4(arg)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalid, lineNum, err)
			}
			r.BlockedAddrs = append(r.BlockedAddrs, addr)

		default:
			return nil, fmt.Errorf("%w: line %d: unknown directive %q", ErrInvalid, lineNum, keyword)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, filename, err)
	}

	// A rules file without a local network is unusable, the direction of
	// a packet could never be determined.
	if !seenLocalNet || r.LocalNet == 0 {
		return nil, fmt.Errorf("%w: rules file must set LOCAL_NET", ErrInvalid)
	}

	return r, nil
}

func parseLocalNet(arg string) (api.IP4, int, error) {
	addrStr, prefixStr, ok := strings.Cut(arg, "/")
	if !ok {
		return 0, 0, fmt.Errorf("LOCAL_NET %q missing prefix length", arg)
	}

	addr, err := api.ParseIP4(addrStr)
	if err != nil {
		return 0, 0, err
	}

	prefixLen, err := strconv.Atoi(prefixStr)
	if err != nil || prefixLen < 0 || prefixLen > 32 {
		return 0, 0, fmt.Errorf("invalid prefix length %q", prefixStr)
	}

	return addr, prefixLen, nil
}
