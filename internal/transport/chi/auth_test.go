package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveAuth(keys []string, path, authorization string) *httptest.ResponseRecorder {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	BearerAuthMiddleware(keys)(next).ServeHTTP(rr, req)
	return rr
}

func TestBearerAuthMiddleware(t *testing.T) {
	keys := []string{"alpha", "", "beta"}

	tests := []struct {
		name   string
		keys   []string
		path   string
		header string
		want   int
		msg    string
	}{
		{name: "auth disabled", keys: nil, path: "/search", want: http.StatusNoContent},
		{name: "only blank keys", keys: []string{"", ""}, path: "/search", want: http.StatusNoContent},
		{name: "first key", keys: keys, path: "/search", header: "Bearer alpha", want: http.StatusNoContent},
		{name: "second key", keys: keys, path: "/counts", header: "Bearer beta", want: http.StatusNoContent},
		{name: "token padded", keys: keys, path: "/types", header: "Bearer  beta ", want: http.StatusNoContent},
		{name: "health exempt", keys: keys, path: "/health", want: http.StatusNoContent},
		{name: "metrics exempt", keys: keys, path: "/metrics", want: http.StatusNoContent},
		{name: "no header", keys: keys, path: "/search", want: http.StatusUnauthorized, msg: "missing authorization header"},
		{name: "basic scheme", keys: keys, path: "/search", header: "Basic YTpi", want: http.StatusUnauthorized, msg: "authorization header must use Bearer scheme"},
		{name: "unknown key", keys: keys, path: "/query", header: "Bearer gamma", want: http.StatusUnauthorized, msg: "invalid api key"},
		{name: "empty token", keys: keys, path: "/search", header: "Bearer ", want: http.StatusUnauthorized, msg: "invalid api key"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := serveAuth(tc.keys, tc.path, tc.header)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
			if tc.want != http.StatusUnauthorized {
				return
			}

			if got := rr.Header().Get("WWW-Authenticate"); got != `Bearer realm="discover"` {
				t.Errorf("WWW-Authenticate = %q", got)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != ErrorCodeUnauthorized || resp.Message != tc.msg {
				t.Errorf("body = %+v, want message %q", resp, tc.msg)
			}
		})
	}
}
