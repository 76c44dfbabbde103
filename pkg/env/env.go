package env

import "os"

// Get returns the environment value for key, or fallback when the variable is
// unset or empty.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
