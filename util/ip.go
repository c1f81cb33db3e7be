package util

import (
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// GetOutboundIP the local address used for outgoing traffic. No packet is
// sent; dialing udp only picks a route.
func GetOutboundIP() (net.IP, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return nil, errors.Wrap(err, "outbound ip")
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP, nil
}

// GetExternalIP asks a public echo service, empty on failure
func GetExternalIP() string {
	c := http.Client{Timeout: time.Second * 3}
	resp, err := c.Get("http://myexternalip.com/raw")
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	content, _ := io.ReadAll(resp.Body)
	return strings.TrimSpace(string(content))
}

// GetLocalIP first non loopback ipv4 address
func GetLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}

	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return ""
}

// AdvertiseAddr replaces an empty or unspecified host in listen with ip, so
// peers can dial it. ":10086" becomes "192.168.1.7:10086".
func AdvertiseAddr(listen string, ip string) (string, error) {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "", errors.Wrapf(err, "listen address %s", listen)
	}
	if h := net.ParseIP(host); host == "" || (h != nil && h.IsUnspecified()) {
		host = ip
	}
	return net.JoinHostPort(host, port), nil
}
