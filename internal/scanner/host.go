package scanner

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/hawtsauceTR/flaghunter/internal/matcher"
	"github.com/hawtsauceTR/flaghunter/internal/netscan"
)

// DefaultPorts are probed by ScanHost when no ports are given.
var DefaultPorts = []int{21, 22, 23, 25, 80, 110, 143, 443, 3306, 8000, 8080, 8443}

// ScanHost grabs the banner of every open port on host and searches it.
// An unreachable host is logged but the ports are still tried, since many
// hosts drop ICMP.
func (d *Dispatcher) ScanHost(ctx context.Context, host string, ports []int) []matcher.Record {
	if len(ports) == 0 {
		ports = DefaultPorts
	}
	timeout := time.Duration(d.cfg.Timeout) * time.Second

	if !netscan.Ping(ctx, host) {
		d.log.Debugf("[INFO] %s did not answer ping", host)
	}

	var found []matcher.Record
	for _, port := range ports {
		if ctx.Err() != nil {
			break
		}
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		if !netscan.ScanPort(host, port, timeout) {
			d.log.Debugf("[INFO] %s closed", addr)
			continue
		}
		d.log.Debugf("[INFO] %s open", addr)
		banner := netscan.BannerGrab(host, port, timeout)
		found = append(found, d.search(banner, fmt.Sprintf("Banner: %s", addr))...)
	}
	return found
}
