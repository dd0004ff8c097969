package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/lazyhydrate/pkg/bridge"
	"github.com/vango-dev/lazyhydrate/pkg/diag"
)

func newTestServer(t *testing.T, config Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(config).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestCompileEndpoint(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Post(srv.URL+"/compile?file=page.vue", "text/html",
		strings.NewReader(`<LazyChart hydrate:visible="opts" hydrate:never />`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body CompileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.File != "page.vue" {
		t.Errorf("file = %q", body.File)
	}
	if body.Code != `<LazyNeverChart />` {
		t.Errorf("code = %q", body.Code)
	}
	if !body.Changed || !body.Failed {
		t.Errorf("changed = %v, failed = %v, want both true", body.Changed, body.Failed)
	}
	if len(body.Diagnostics) != 1 || body.Diagnostics[0].Code != diag.CodeDuplicate {
		t.Errorf("diagnostics = %+v", body.Diagnostics)
	}
	if body.Diagnostics[0].Severity != diag.SeverityError {
		t.Errorf("severity = %v, want error", body.Diagnostics[0].Severity)
	}
}

func TestCompileEndpointErrors(t *testing.T) {
	srv := newTestServer(t, Config{MaxBodySize: 16})

	resp, err := http.Post(srv.URL+"/compile", "text/html", strings.NewReader(`<div class="x`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unterminated tag: status = %d, want 422", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/compile", "text/html", strings.NewReader(strings.Repeat("x", 64)))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("large body: status = %d, want 413", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/compile")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /compile: status = %d, want 405", resp.StatusCode)
	}
}

func TestKindsEndpoint(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/kinds")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var kinds []KindResponse
	if err := json.NewDecoder(resp.Body).Decode(&kinds); err != nil {
		t.Fatal(err)
	}
	if len(kinds) != 8 {
		t.Fatalf("kinds = %d, want 8", len(kinds))
	}
	if kinds[0].Kind != "time" || kinds[0].Suffix != "Time" || kinds[0].Default != "2000ms" {
		t.Errorf("first kind = %+v", kinds[0])
	}
	if last := kinds[7]; last.Kind != "never" || last.Expected != "no value" {
		t.Errorf("last kind = %+v", last)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("healthz = %q", body)
	}

	resp, err = http.Post(srv.URL+"/compile", "text/html", strings.NewReader(`<LazyA hydrate:idle />`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `lazyhydrate_compiles_total{status="ok"} 1`) {
		t.Errorf("metrics missing compile counter:\n%s", body)
	}
}

func TestBridgeEndpoint(t *testing.T) {
	connected := make(chan *bridge.Conn, 1)
	srv := newTestServer(t, Config{
		CheckOrigin: func(*http.Request) bool { return true },
		OnConnect: func(_ *http.Request, conn *bridge.Conn) {
			conn.MatchMedia("print", func() {})
			connected <- conn
		},
	})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("OnConnect not called")
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg bridge.Message
	if err := client.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Op != bridge.OpMedia || msg.Query != "print" {
		t.Errorf("frame = %+v", msg)
	}
}

func TestBridgeEndpointRequiresOnConnect(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/ws")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
