package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/existflow/mtc/internal/container"
	"github.com/existflow/mtc/internal/model"
	"github.com/existflow/mtc/internal/store"
	"github.com/existflow/mtc/internal/sync"
)

func newTestServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{}
	if token != "" {
		if opts.TokenHash, err = HashToken(token); err != nil {
			t.Fatal(err)
		}
	}
	s := New(fs, opts)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		srv.Close()
		s.Close()
	})
	return srv
}

func request(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, "secret")
	if resp := request(t, http.MethodGet, srv.URL+"/health", "", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("health = %d", resp.StatusCode)
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, "secret")
	url := srv.URL + "/api/v1/snapshots/" + store.TodosFile

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "guess", http.StatusUnauthorized},
		{"valid", "secret", http.StatusNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if resp := request(t, http.MethodGet, url, c.token, ""); resp.StatusCode != c.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, c.want)
			}
		})
	}
}

func TestPutValidation(t *testing.T) {
	srv := newTestServer(t, "")
	base := srv.URL + "/api/v1/snapshots/"

	if resp := request(t, http.MethodPut, base+"notes.json", "", `{}`); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown name = %d, want 404", resp.StatusCode)
	}
	if resp := request(t, http.MethodPut, base+store.TasksFile, "", `not json`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid body = %d, want 400", resp.StatusCode)
	}
	if resp := request(t, http.MethodPut, base+store.TasksFile, "", `{"items":[],"is_server":true}`); resp.StatusCode != http.StatusOK {
		t.Errorf("valid put = %d, want 200", resp.StatusCode)
	}
	if resp := request(t, http.MethodGet, base+store.TasksFile, "", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("get after put = %d, want 200", resp.StatusCode)
	}
}

// Two clients reconcile through the server with the http transport
func TestTwoClientsThroughServer(t *testing.T) {
	srv := newTestServer(t, "secret")
	ctx := context.Background()

	tr, err := sync.NewHTTPTransport(srv.URL, "secret")
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	laptop := container.New[model.Event](false)
	laptop.Add(model.NewEvent("concert", model.NewDate(2026, 11, 7)))
	if _, err := sync.SyncRemote(ctx, tr, sync.Plain{}, laptop, store.EventsFile, false); !errors.Is(err, sync.ErrRemoteNotFound) {
		t.Fatalf("first merge = %v, want ErrRemoteNotFound", err)
	}
	if _, err := sync.SyncRemote(ctx, tr, sync.Plain{}, laptop, store.EventsFile, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	phone := container.New[model.Event](false)
	phone.Add(model.NewEvent("flight", model.NewDate(2026, 11, 9)))
	report, err := sync.SyncRemote(ctx, tr, sync.Plain{}, phone, store.EventsFile, false)
	if err != nil {
		t.Fatalf("phone sync: %v", err)
	}
	if report.Pushed != 1 || report.Pulled != 1 {
		t.Errorf("phone report = %+v", report)
	}

	// laptop removes the concert, phone learns about it on its next sync
	if err := laptop.MarkRemoved(0); err != nil {
		t.Fatal(err)
	}
	if _, err := sync.SyncRemote(ctx, tr, sync.Plain{}, laptop, store.EventsFile, false); err != nil {
		t.Fatal(err)
	}
	report, err = sync.SyncRemote(ctx, tr, sync.Plain{}, phone, store.EventsFile, false)
	if err != nil {
		t.Fatal(err)
	}
	if report.DroppedLocal != 1 {
		t.Errorf("phone should drop the concert: %+v", report)
	}
	if phone.Len() != 1 {
		t.Errorf("phone has %d events, want 1", phone.Len())
	}
	if e, _ := phone.GetByID(0); e.Body != "flight" {
		t.Errorf("phone keeps %q", e.Body)
	}
}

func TestFileStore(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := fs.Get(ctx, store.TodosFile); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Get missing = %v", err)
	}
	if err := fs.Put(ctx, store.TodosFile, []byte(`{"items":[]}`)); err != nil {
		t.Fatal(err)
	}
	snap, err := fs.Get(ctx, store.TodosFile)
	if err != nil || string(snap.Data) != `{"items":[]}` || snap.UpdatedAt.IsZero() {
		t.Errorf("Get = %+v, %v", snap, err)
	}
}

func TestValidName(t *testing.T) {
	for _, name := range []string{store.TodosFile, store.TasksFile, store.EventsFile} {
		if !ValidName(name) {
			t.Errorf("%s rejected", name)
		}
	}
	for _, name := range []string{"", "../todos.json", "config.yaml"} {
		if ValidName(name) {
			t.Errorf("%q accepted", name)
		}
	}
}
