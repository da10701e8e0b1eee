package env

import "os"

// Get reads an environment variable with a fallback for when it is unset or
// empty. Typed terminal configuration lives in pkg/config; this covers the
// few lookups needed before that is loaded, like the logger's LOG_FORMAT.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
