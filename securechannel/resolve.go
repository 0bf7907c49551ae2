package securechannel

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// defaultDNSServer is the local systemd-resolved stub.
const defaultDNSServer = "127.0.0.53:53"

// ResolverConfig configures SRV lookups for srv+ routes.
type ResolverConfig struct {
	// Server is the DNS server to query, as host:port. Empty selects
	// the local resolver stub.
	Server string
}

// Resolver turns SRV names into dialable host:port endpoints.
type Resolver struct {
	server string
	client *dns.Client
}

// NewResolver creates a resolver from the given configuration.
func NewResolver(cfg ResolverConfig) *Resolver {
	server := cfg.Server
	if server == "" {
		server = defaultDNSServer
	}
	return &Resolver{server: server, client: new(dns.Client)}
}

// Resolve queries the SRV record set for name and returns the first
// record's target and port as host:port.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	m := new(dns.Msg)
	m.Id = dns.Id()
	m.RecursionDesired = true
	m.Question = []dns.Question{{
		Name:   dns.Fqdn(name),
		Qtype:  dns.TypeSRV,
		Qclass: dns.ClassINET,
	}}

	in, _, err := r.client.ExchangeContext(ctx, m, r.server)
	if err != nil {
		return "", fmt.Errorf("failed to query SRV records for %s: %w", name, err)
	}
	for _, answer := range in.Answer {
		srv, ok := answer.(*dns.SRV)
		if !ok {
			continue
		}
		host := strings.TrimSuffix(srv.Target, ".")
		return net.JoinHostPort(host, strconv.Itoa(int(srv.Port))), nil
	}
	return "", fmt.Errorf("no SRV records found for %s", name)
}
