package guestusage

import (
	"errors"
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrNoClientIdentity is returned when no usable client address can be
// derived from the request. Callers must treat this as a denial, never as a
// shared anonymous bucket.
var ErrNoClientIdentity = errors.New("no usable client address in request")

// ResolveClientKey derives the rate-limit bucket key for an anonymous caller.
// Header precedence matters: the deployment sits behind a reverse proxy, so
// X-Forwarded-For carries the original client as its first entry. X-Real-IP
// is the proxy's single-value variant. The raw transport address is the last
// resort for direct connections.
func ResolveClientKey(forwardedFor, realIP, remoteAddr string) (string, error) {
	if forwardedFor != "" {
		first := forwardedFor
		if idx := strings.Index(forwardedFor, ","); idx >= 0 {
			first = forwardedFor[:idx]
		}
		if key := strings.TrimSpace(first); key != "" {
			return key, nil
		}
	}

	if key := strings.TrimSpace(realIP); key != "" {
		return key, nil
	}

	if remoteAddr != "" {
		// The transport address usually carries a port; the bucket is per host.
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil && host != "" {
			return host, nil
		}
		if key := strings.TrimSpace(remoteAddr); key != "" {
			return key, nil
		}
	}

	return "", ErrNoClientIdentity
}

// ClientKeyFromCtx resolves the bucket key from a fiber request context.
func ClientKeyFromCtx(c *fiber.Ctx) (string, error) {
	return ResolveClientKey(
		c.Get(fiber.HeaderXForwardedFor),
		c.Get("X-Real-IP"),
		c.Context().RemoteAddr().String(),
	)
}
