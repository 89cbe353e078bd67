package middleware

import (
	"net/http"
	"strings"
)

// CORS implements the cross-origin contract for browser clients.
// Allowed origins are echoed back with credentials enabled; preflight
// requests are answered here and never reach the application handlers.
// Headers are set before the handler runs, so no response wrapping is
// needed.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if o := strings.TrimSuffix(strings.TrimSpace(origin), "/"); o != "" {
			allowed[o] = struct{}{}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				hdr := w.Header()
				hdr.Set("Access-Control-Allow-Origin", origin)
				hdr.Set("Access-Control-Allow-Credentials", "true")
				hdr.Add("Vary", "Origin")
				if r.Method == http.MethodOptions {
					hdr.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
					hdr.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept")
					hdr.Set("Access-Control-Max-Age", "86400")
				}
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
