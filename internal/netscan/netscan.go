// Package netscan holds the host-level probes: ping, TCP connect and
// banner grabbing.
package netscan

import (
	"context"
	"net"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// pingTimeout caps a single ping invocation.
const pingTimeout = 5 * time.Second

// bannerProbe is sent to coax a banner out of HTTP-ish services.
const bannerProbe = "HEAD / HTTP/1.0\r\n\r\n"

// bannerMax is the most a banner grab reads.
const bannerMax = 1024

// Ping sends one echo request using the system ping binary.
func Ping(ctx context.Context, host string) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	countFlag := "-c"
	if runtime.GOOS == "windows" {
		countFlag = "-n"
	}
	return exec.CommandContext(ctx, "ping", countFlag, "1", host).Run() == nil
}

// ScanPort reports whether a TCP connect to host:port succeeds in timeout.
func ScanPort(host string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// BannerGrab connects, sends an HTTP HEAD probe and returns up to 1 KiB of
// whatever comes back. Any failure returns "".
func BannerGrab(host string, port int, timeout time.Duration) string {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return ""
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := conn.Write([]byte(bannerProbe)); err != nil {
		return ""
	}
	buf := make([]byte, bannerMax)
	n, err := conn.Read(buf)
	if n == 0 && err != nil {
		return ""
	}
	return strings.ToValidUTF8(string(buf[:n]), "")
}
