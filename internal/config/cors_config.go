package config

import (
	"sort"
	"strings"
)

const (
	corsOriginsVar = "CORS_ALLOWED_ORIGINS"
	corsMethodsVar = "CORS_ALLOWED_METHODS"
	corsHeadersVar = "CORS_ALLOWED_HEADERS"
)

// Cors configures the mock backend for the browser dashboard's dev server.
type Cors struct{}

var _ CorsConfig = Cors{}

// AllowedOrigins is a set of origins. "*" allows any origin without credentials.
type AllowedOrigins map[string]struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	origins := make([]string, 0, len(a))
	for k := range a {
		origins = append(origins, k)
	}
	sort.Strings(origins)
	return strings.Join(origins, ", ")
}

func (Cors) GetAllowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{}
	for _, o := range splitList(GetEnv(corsOriginsVar, "http://localhost:5173")) {
		origins[o] = struct{}{}
	}
	return origins
}

func (Cors) GetAllowedMethods() string {
	return strings.Join(splitList(GetEnv(corsMethodsVar, "GET,POST,PUT,DELETE,OPTIONS")), ", ")
}

func (Cors) GetAllowedHeaders() string {
	return strings.Join(splitList(GetEnv(corsHeadersVar, "Accept,Authorization,Content-Type")), ", ")
}

func splitList(value string) []string {
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
