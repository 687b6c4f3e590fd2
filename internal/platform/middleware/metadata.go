package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// ClientMetadata captures request-level client attributes recorded into
// audit entry metadata. No raw header values are stored, only a coarse
// device summary, to keep audit rows free of high-entropy identifiers.
type ClientMetadata struct {
	IP       string
	Browser  string
	OS       string
	Platform string
}

type clientMetadataKey struct{}

// Metadata extracts the client IP and a parsed User-Agent summary into the
// request context for downstream audit writes.
func Metadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := ClientMetadata{
			IP: remoteIP(r.RemoteAddr),
		}

		if uaString := r.Header.Get("User-Agent"); uaString != "" {
			ua := useragent.New(uaString)
			browser, _ := ua.Browser()
			meta.Browser = strings.ToLower(strings.TrimSpace(browser))
			meta.OS = strings.ToLower(strings.TrimSpace(ua.OS()))
			meta.Platform = "desktop"
			if ua.Mobile() {
				meta.Platform = "mobile"
			}
		}

		ctx := context.WithValue(r.Context(), clientMetadataKey{}, meta)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientMetadata retrieves the client metadata from the context.
func GetClientMetadata(ctx context.Context) ClientMetadata {
	if meta, ok := ctx.Value(clientMetadataKey{}).(ClientMetadata); ok {
		return meta
	}
	return ClientMetadata{}
}

func remoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
