package tradfri

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// mDNS service advertised by TRÅDFRI gateways.
const (
	discoveryService = "_coap._udp"
	discoveryDomain  = "local."

	// gatewayInstancePrefix marks gateway instances; other CoAP devices
	// on the network are ignored.
	gatewayInstancePrefix = "gw-"

	// DefaultPort is the gateway's CoAP over DTLS port.
	DefaultPort = 5684
)

// DiscoveredGateway is a gateway found on the local network.
type DiscoveredGateway struct {
	// Name is the mDNS instance name, e.g. "gw-b072bf257a41". It keys
	// the stored credentials.
	Name string

	// Host is the advertised host name.
	Host string

	// Addresses are the advertised IP addresses, IPv4 first.
	Addresses []string

	Port int
}

// Address returns host:port for dialing, preferring a literal IP over
// the mDNS host name.
func (g DiscoveredGateway) Address() string {
	host := strings.TrimSuffix(g.Host, ".")
	if len(g.Addresses) > 0 {
		host = g.Addresses[0]
	}
	port := g.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

type browseFunc func(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry) error

func zeroconfBrowse(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry) error {
	return zeroconf.Browse(ctx, service, domain, entries, removed)
}

// Discover browses the local network for a gateway and returns the first
// one that answers.
//
// Parameters:
//   - ctx: Cancels the browse
//   - timeout: Upper bound on the browse
//
// Returns:
//   - DiscoveredGateway: The first gateway found
//   - error: ErrGatewayNotFound if none answered in time
func Discover(ctx context.Context, timeout time.Duration) (DiscoveredGateway, error) {
	return discover(ctx, timeout, zeroconfBrowse)
}

func discover(ctx context.Context, timeout time.Duration, browse browseFunc) (DiscoveredGateway, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	browseErr := make(chan error, 1)
	go func() {
		browseErr <- browse(ctx, discoveryService, discoveryDomain, entries, removed)
	}()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return DiscoveredGateway{}, ErrGatewayNotFound
			}
			if gw, ok := gatewayFromEntry(entry); ok {
				return gw, nil
			}

		case <-removed:

		case err := <-browseErr:
			if err != nil {
				return DiscoveredGateway{}, fmt.Errorf("%w: %v", ErrGatewayNotFound, err)
			}
			// Browse returned without error; keep waiting for entries
			// until the deadline.
			browseErr = nil

		case <-ctx.Done():
			return DiscoveredGateway{}, ErrGatewayNotFound
		}
	}
}

func gatewayFromEntry(entry *zeroconf.ServiceEntry) (DiscoveredGateway, bool) {
	if entry == nil || !strings.HasPrefix(entry.Instance, gatewayInstancePrefix) {
		return DiscoveredGateway{}, false
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return DiscoveredGateway{
		Name:      entry.Instance,
		Host:      entry.HostName,
		Addresses: addrs,
		Port:      entry.Port,
	}, true
}
