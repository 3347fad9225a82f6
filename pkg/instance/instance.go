// Package instance names the running replica in logs and lock tokens.
package instance

import (
	"os"
	"strings"
)

// platformVars are checked in order; the first non-empty value wins.
var platformVars = []string{"WORKER_ID", "DYNO", "HOSTNAME"}

// ID returns the replica identifier, or "local" when nothing identifies it.
func ID() string {
	return resolve(os.Getenv, os.Hostname)
}

func resolve(getenv func(string) string, hostname func() (string, error)) string {
	for _, key := range platformVars {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
	}
	if h, err := hostname(); err == nil && strings.TrimSpace(h) != "" {
		return h
	}
	return "local"
}
