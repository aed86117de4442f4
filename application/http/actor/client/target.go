package client

import (
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const DefaultPort uint16 = 80

// Target is the server a request is sent to. Redirects produce a new Target.
type Target struct {
	Host string
	Port uint16
}

func (t Target) String() string {
	return net.JoinHostPort(t.Host, strconv.FormatUint(uint64(t.Port), 10))
}

// HostHeader is the Host field value for the target. The port is omitted when it is 80.
func (t Target) HostHeader() string {
	if t.Port == DefaultPort {
		return t.Host
	}
	return t.String()
}

// ParseTarget normalizes what a caller passes as a host.
// Any "scheme://" prefix is discarded, a port is split off at the first colon,
// and whatever path or query follows is cut off.
// e.g. "http://example.com:8080/path" becomes example.com port 8080.
func ParseTarget(host string, defaultPort uint16) (Target, error) {
	if _, rest, found := strings.Cut(host, "://"); found {
		host = rest
	}

	name, port, hasPort := strings.Cut(host, ":")
	if hasPort {
		port = cutPathQuery(port)
	} else {
		name = cutPathQuery(name)
	}

	if name == "" {
		return Target{}, ErrEmptyHost
	}

	target := Target{Host: name, Port: defaultPort}
	if port != "" {
		p, err := parsePort(port)
		if err != nil {
			return Target{}, err
		}
		target.Port = p
	}

	return target, nil
}

// ParseLocation resolves a Location field value against the current target.
// "http:", "https:" and every "//" are removed, then the value is split at the first "/"
// into a host and a path. An empty host keeps current, a host without a port
// keeps the current port, and a value without "/" gets the path "/".
func ParseLocation(current Target, value string) (Target, string, error) {
	v := strings.ReplaceAll(value, "http:", "")
	v = strings.ReplaceAll(v, "https:", "")
	v = strings.ReplaceAll(v, "//", "")

	hostPart, path := v, "/"
	if idx := strings.IndexByte(v, '/'); idx >= 0 {
		hostPart, path = v[:idx], v[idx:]
	}

	if hostPart == "" {
		return current, path, nil
	}

	name, port, hasPort := strings.Cut(hostPart, ":")
	if name == "" {
		return Target{}, "", errors.Wrapf(ErrEmptyHost, "location %q", value)
	}

	target := Target{Host: name, Port: current.Port}
	if hasPort && port != "" {
		p, err := parsePort(port)
		if err != nil {
			return Target{}, "", errors.Wrapf(err, "location %q", value)
		}
		target.Port = p
	}

	return target, path, nil
}

func cutPathQuery(s string) string {
	if idx := strings.IndexAny(s, "/?"); idx >= 0 {
		return s[:idx]
	}
	return s
}

func parsePort(s string) (uint16, error) {
	port, err := strconv.ParseUint(s, 10, 16)
	if err != nil || port == 0 {
		return 0, errors.Wrapf(ErrInvalidPort, "%q", s)
	}
	return uint16(port), nil
}
