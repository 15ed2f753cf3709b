package middleware

import (
	"net/netip"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP bypasses the limiter for loopback and RFC 1918 / ULA clients.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		addr, ok := clientAddr(c)
		return ok && (addr.IsLoopback() || addr.IsPrivate())
	}
}

// AllowCIDRs bypasses the limiter for clients inside any of prefixes. Malformed entries are skipped.
func AllowCIDRs(prefixes ...string) AllowFunc {
	var nets []netip.Prefix
	for _, p := range prefixes {
		if pfx, err := netip.ParsePrefix(p); err == nil {
			nets = append(nets, pfx.Masked())
		}
	}
	return func(c *gin.Context) bool {
		addr, ok := clientAddr(c)
		if !ok {
			return false
		}
		for _, n := range nets {
			if n.Contains(addr) {
				return true
			}
		}
		return false
	}
}

func clientAddr(c *gin.Context) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(ipFromCtx(c))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
