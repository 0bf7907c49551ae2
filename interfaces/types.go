package interfaces

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Route addresses the remote cloud service a secure channel connects
// to. Two forms are accepted: a direct "host:port" endpoint, or
// "srv+name" where name is resolved through a DNS SRV lookup before
// dialing.
type Route string

const srvPrefix = "srv+"

// NewRoute creates a route with validation.
func NewRoute(s string) (Route, error) {
	r := Route(s)
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

// String returns the route as a string.
func (r Route) String() string {
	return string(r)
}

// IsSRV reports whether the route requires an SRV lookup before
// dialing.
func (r Route) IsSRV() bool {
	return strings.HasPrefix(string(r), srvPrefix)
}

// SRVName returns the DNS name to query for an SRV route.
func (r Route) SRVName() string {
	return strings.TrimPrefix(string(r), srvPrefix)
}

// Validate checks that the route is a usable address.
func (r Route) Validate() error {
	if r == "" {
		return errors.New("empty route")
	}
	if r.IsSRV() {
		if r.SRVName() == "" {
			return errors.New("invalid route: empty srv name")
		}
		return nil
	}
	host, port, err := net.SplitHostPort(string(r))
	if err != nil {
		return fmt.Errorf("invalid route %q: %w", string(r), err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("invalid route %q: host and port required", string(r))
	}
	return nil
}
