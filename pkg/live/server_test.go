package live

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lumen-dev/lumen/pkg/dom"
	"github.com/lumen-dev/lumen/pkg/render"
	"github.com/lumen-dev/lumen/pkg/snapshot"
)

func staticRoot(doc *dom.Document) (*render.Instruction, error) {
	div := doc.CreateElement("div")
	div.SetAttr("id", "app")
	div.AppendChild(doc.CreateText("hello"))
	return render.Static(div), nil
}

func TestServerHTTPSurface(t *testing.T) {
	store := snapshot.NewMemStore()
	srv, err := NewServer(staticRoot, Config{Snapshots: store})
	if err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/snapshot")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("snapshot: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `<div id="app">hello</div>`) {
		t.Errorf("snapshot body missing rendered content: %s", body)
	}
	if resp.Header.Get("X-Snapshot-Location") == "" {
		t.Error("snapshot location header missing")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 stored snapshot, got %d", store.Len())
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	metricsBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(metricsBody), "lumen_active_sessions") {
		t.Error("metrics output missing lumen_active_sessions")
	}
}

func TestNewServerRejectsNilRoot(t *testing.T) {
	if _, err := NewServer(nil, Config{}); err == nil {
		t.Error("expected error for nil root")
	}
}
