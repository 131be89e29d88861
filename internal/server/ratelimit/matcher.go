package ratelimit

import "strings"

// MatchEndpoint returns the rule for a request, or nil when only the default limit
// applies. Exact paths win over prefix rules (e.g., "/sessions/" matches
// "/sessions/{id}/fields"). GET /health matches an unlimited rule.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return &EndpointConfig{}
	}

	for i := range configs {
		if c := &configs[i]; c.Method == method && c.Path == path {
			return c
		}
	}
	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}
