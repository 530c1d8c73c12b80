package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func preflight(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-Confirm")
	return req
}

func TestCORS_Preflight(t *testing.T) {
	tests := []struct {
		name        string
		cfg         CORSConfig
		origin      string
		wantOrigin  string
		wantHeaders string
		wantCreds   string
	}{
		{
			name:        "any origin",
			cfg:         CORSConfig{},
			origin:      "http://kiosk.local",
			wantOrigin:  "*",
			wantHeaders: "X-Confirm",
		},
		{
			name:        "listed origin keeps configured case",
			cfg:         CORSConfig{AllowOrigins: []string{"http://Admin.Local"}, AllowHeaders: []string{"Authorization", "X-Confirm"}},
			origin:      "http://admin.local",
			wantOrigin:  "http://Admin.Local",
			wantHeaders: "Authorization, X-Confirm",
		},
		{
			name:   "unknown origin",
			cfg:    CORSConfig{AllowOrigins: []string{"http://admin.local"}},
			origin: "http://evil.example",
		},
		{
			name:        "credentials echo origin",
			cfg:         CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true},
			origin:      "http://kiosk.local",
			wantOrigin:  "http://kiosk.local",
			wantHeaders: "X-Confirm",
			wantCreds:   "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := CORS(tt.cfg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, preflight(tt.origin))

			assert.False(t, called)
			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantHeaders, w.Header().Get("Access-Control-Allow-Headers"))
			assert.Equal(t, tt.wantCreds, w.Header().Get("Access-Control-Allow-Credentials"))
			assert.Contains(t, w.Header().Values("Vary"), "Access-Control-Request-Method")
		})
	}
}

func TestCORS_ActualRequest(t *testing.T) {
	h := CORS(CORSConfig{
		AllowOrigins:  []string{"http://admin.local"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        600,
	})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/menu", nil)
	req.Header.Set("Origin", "http://admin.local")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://admin.local", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, []string{"Origin"}, w.Header().Values("Vary"))

	// Same-origin requests pass through untouched.
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/menu", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
