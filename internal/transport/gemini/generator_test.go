package gemini

import (
	"net/http"
	"testing"
	"time"
)

func TestClientConfigDefaultsToGeminiEndpoint(t *testing.T) {
	cc := clientConfig(&Config{APIKey: "k"})

	if cc.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cc.BaseURL, DefaultBaseURL)
	}
}

func TestClientConfigBaseURLOverride(t *testing.T) {
	cc := clientConfig(&Config{APIKey: "k", BaseURL: "http://localhost:9999/v1"})

	if cc.BaseURL != "http://localhost:9999/v1" {
		t.Errorf("BaseURL = %q, want override", cc.BaseURL)
	}
}

func TestClientConfigTimeout(t *testing.T) {
	cc := clientConfig(&Config{APIKey: "k", Timeout: 5 * time.Second})

	hc, ok := cc.HTTPClient.(*http.Client)
	if !ok {
		t.Fatalf("HTTPClient is %T, want *http.Client", cc.HTTPClient)
	}
	if hc.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", hc.Timeout)
	}
}
