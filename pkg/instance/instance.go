package instance

import (
	"os"

	"github.com/angelmondragon/quotebuilder-backend/pkg/env"
)

const fallbackID = "local"

// ID identifies this process in logs. QUOTEBUILDER_INSTANCE_ID wins, then the
// platform's DYNO, then the hostname.
func ID() string {
	if id := env.First("", "QUOTEBUILDER_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
