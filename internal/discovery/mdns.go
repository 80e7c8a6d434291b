// ABOUTME: mDNS advertisement so clients can find running players on the LAN
// ABOUTME: One service registration per adapter, withdrawn on stop
package discovery

import (
	"fmt"
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/mdns"
)

// ServiceType identifies player adapters on the local network.
const ServiceType = "_remuco._tcp"

// Advertiser publishes one player service via mDNS.
type Advertiser struct {
	playerName string
	port       int
	log        *log.Logger

	mu     sync.Mutex
	server *mdns.Server
}

// NewAdvertiser creates an advertiser for the named player. Nothing is
// published until Advertise is called.
func NewAdvertiser(playerName string, port int, logger *log.Logger) *Advertiser {
	if logger == nil {
		logger = log.Default()
	}
	return &Advertiser{playerName: playerName, port: port, log: logger}
}

// Advertise registers the service. Failures are not fatal for the adapter,
// clients can still connect by address.
func (a *Advertiser) Advertise() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		return nil
	}

	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		a.playerName,
		ServiceType,
		"",
		"",
		a.port,
		ips,
		[]string{"player=" + a.playerName},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	a.server = server
	a.log.Info("advertising service", "player", a.playerName, "port", a.port, "type", ServiceType)
	return nil
}

// Withdraw unregisters the service. Idempotent.
func (a *Advertiser) Withdraw() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	a.log.Debug("service withdrawn", "player", a.playerName)
}

// getLocalIPs returns the non-loopback IPv4 addresses of up interfaces.
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
