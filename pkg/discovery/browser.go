package discovery

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/atvremote/atvremote-go/pkg/devicemodel"
)

// ServiceType is the single mDNS service type this package browses for.
const ServiceType = "_androidtvremote2._tcp"

// Domain is the mDNS domain.
const Domain = "local"

// BrowseTimeout is the default ceiling for a Browse call when the
// caller does not set its own context deadline.
const BrowseTimeout = 10 * time.Second

// Browser finds Android TVs advertising the remote-control service.
type Browser interface {
	// Browse searches until ctx is done, sending one devicemodel.Device
	// per distinct device ID (host:port) on the returned channel. The
	// channel closes when ctx is done.
	Browse(ctx context.Context) (<-chan devicemodel.Device, error)
}

// BrowserConfig configures an MDNSBrowser.
type BrowserConfig struct {
	// Interface restricts browsing to one network interface. Empty
	// means all interfaces.
	Interface string
}

// MDNSBrowser implements Browser using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
}

// NewMDNSBrowser creates an mDNS browser with the given configuration.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	return &MDNSBrowser{config: config}
}

// Browse implements Browser.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan devicemodel.Device, error) {
	out := make(chan devicemodel.Device)

	entries := make(chan *zeroconf.ServiceEntry)

	opts := b.clientOptions()

	var cancel context.CancelFunc = func() {}
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, BrowseTimeout)
	}

	go func() {
		defer cancel()
		defer close(out)
		seen := make(map[string]struct{})
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				device, ok := entryToDevice(entry)
				if !ok {
					continue
				}
				if _, already := seen[device.ID]; already {
					continue
				}
				seen[device.ID] = struct{}{}
				select {
				case out <- device:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, nil, opts...)
	}()

	return out, nil
}

func (b *MDNSBrowser) clientOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if b.config.Interface != "" {
		if iface, err := net.InterfaceByName(b.config.Interface); err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

// entryToDevice converts a resolved mDNS entry to a Device, preferring
// an IPv4 address when one is present.
func entryToDevice(entry *zeroconf.ServiceEntry) (devicemodel.Device, bool) {
	host := entry.HostName
	if len(entry.AddrIPv4) > 0 {
		host = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		host = entry.AddrIPv6[0].String()
	}
	if host == "" {
		return devicemodel.Device{}, false
	}
	return devicemodel.Device{
		ID:   net.JoinHostPort(host, strconv.Itoa(entry.Port)),
		Name: entry.Instance,
		Host: host,
		Port: entry.Port,
	}, true
}
