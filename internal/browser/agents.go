package browser

import (
	"math/rand"
	"time"
)

// Rotated when no explicit user agent is configured. A persistent profile
// should normally pin one via config so the platform sees a stable client.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

func pickUserAgent() string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return defaultUserAgents[r.Intn(len(defaultUserAgents))]
}
