package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/db47h/axisim/hwtest"
	"github.com/db47h/axisim/internal/server"
)

func newServer(t *testing.T) *server.Server {
	t.Helper()
	s, err := server.New(hwtest.Logger(t))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func do(t *testing.T, s *server.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := do(t, newServer(t), http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("bad response %d: %s", w.Code, w.Body)
	}
}

func TestRun(t *testing.T) {
	s := newServer(t)
	w := do(t, s, http.MethodPost, "/run", `
device = "roundrobin"
packets = [[0, 1, 2, 3], [4, 5, 6, 7], [8, 9], [10, 11]]
`)
	if w.Code != http.StatusOK {
		t.Fatalf("bad response %d: %s", w.Code, w.Body)
	}
	var res struct {
		Device  string
		Sent    int
		Outputs [][]string
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Device != "roundrobin" || res.Sent != 4 || len(res.Outputs) != 2 {
		t.Fatalf("bad result %+v", res)
	}
	if strings.Join(res.Outputs[0], ",") != "00010203,0809" || strings.Join(res.Outputs[1], ",") != "04050607,0a0b" {
		t.Fatalf("bad outputs %v", res.Outputs)
	}

	w = do(t, s, http.MethodGet, "/metrics", "")
	body := w.Body.String()
	for _, m := range []string{"axisim_steps_total", `axisim_packets_total{peripheral="sink1"} 2`, "go_goroutines"} {
		if !strings.Contains(body, m) {
			t.Errorf("metrics should contain %q", m)
		}
	}
}

func TestRun_errors(t *testing.T) {
	s := newServer(t)
	w := do(t, s, http.MethodPost, "/run", `device = "cpu"`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"kind":"config"`) {
		t.Fatalf("bad response %d: %s", w.Code, w.Body)
	}
	w = do(t, s, http.MethodPost, "/run", "max_steps = 3\npackets = [[1]]")
	if w.Code != http.StatusUnprocessableEntity || !strings.Contains(w.Body.String(), `"kind":"timeout"`) {
		t.Fatalf("bad response %d: %s", w.Code, w.Body)
	}
}
