//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestProbes(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			resp := doGet(t, path)
			defer resp.Body.Close()
			expectStatus(t, resp, http.StatusOK)

			body := decodeJSON[healthResponse](t, resp)
			if body.Status != "ok" {
				t.Fatalf("status: got %q, failing checks %v", body.Status, body.Checks)
			}
			// Probes are exempt from rate limiting.
			if resp.Header.Get("X-RateLimit-Limit") != "" {
				t.Error("probe was rate limited")
			}
		})
	}
}

func TestNotFound_JSON(t *testing.T) {
	resp := doGet(t, "/api/nope")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusNotFound)

	if body := decodeJSON[errorResponse](t, resp); body.Code != http.StatusNotFound {
		t.Errorf("code: got %d", body.Code)
	}
}
