package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestSwaggerDocRegistered(t *testing.T) {
	doc, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("ReadDoc() error = %v", err)
	}

	var parsed struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("doc is not valid JSON: %v", err)
	}

	if parsed.Info.Title != "demoapp" {
		t.Errorf("expected title demoapp, got %q", parsed.Info.Title)
	}
	for _, p := range []string{"/", "/health", "/info", "/healthz", "/readyz"} {
		if _, ok := parsed.Paths[p]; !ok {
			t.Errorf("expected path %s in doc", p)
		}
	}
}
