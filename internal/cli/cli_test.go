package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palmgate/palmgate/internal/adapter"
	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/store"
)

const goodToken = "good-token"

// newAPIServer serves three pages of devices, a failing users list and
// /api/me, which only accepts goodToken.
func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/devices", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		var data []map[string]string
		for i := range size {
			n := (page-1)*size + i + 1
			data = append(data, map[string]string{
				"id":     fmt.Sprintf("dev-%02d", n),
				"name":   fmt.Sprintf("Scanner %d", n),
				"serial": fmt.Sprintf("SN%d", n),
				"status": "online",
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "page": page, "total_pages": 3})
	})
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"database maintenance"}`))
	})
	mux.HandleFunc("/api/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+goodToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"admin"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testApp struct {
	*app
	saved []string
}

func newTestApp(t *testing.T, serverURL, token string) *testApp {
	t.Helper()
	ta := &testApp{app: defaultApp("1.2.3")}
	ta.loadConfig = func() (*adapter.Config, error) {
		cfg := adapter.DefaultConfig()
		cfg.Server.URL = serverURL
		cfg.Server.Token = token
		cfg.HTTP.MaxRetries = 0
		cfg.Logging.File = ""
		cfg.Store.Path = ""
		return cfg, nil
	}
	ta.saveToken = func(token string) error {
		ta.saved = append(ta.saved, token)
		return nil
	}
	ta.stdinIsTerminal = func() bool { return false }
	ta.stdoutIsTTY = func() bool { return false }
	return ta
}

func execute(t *testing.T, a *app, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd(a)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestListPrintsPages(t *testing.T) {
	srv := newAPIServer(t)
	ta := newTestApp(t, srv.URL, goodToken)

	out, errOut, err := execute(t, ta.app, "", "list", "devices", "--page-size", "5", "--max-pages", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 11)
	assert.Contains(t, lines[0], "SERIAL")
	assert.Contains(t, out, "Scanner 10")
	assert.NotContains(t, out, "Scanner 11")
	assert.Contains(t, errOut, "devices: 10 rows, 2 pages, more available")
}

func TestListAllPages(t *testing.T) {
	srv := newAPIServer(t)
	ta := newTestApp(t, srv.URL, goodToken)

	out, errOut, err := execute(t, ta.app, "", "list", "device", "--page-size", "4", "--max-pages", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Scanner 12")
	assert.Contains(t, errOut, "devices: 12 rows, 3 pages")
	assert.NotContains(t, errOut, "more available")
}

func TestListGrep(t *testing.T) {
	srv := newAPIServer(t)
	ta := newTestApp(t, srv.URL, goodToken)

	out, errOut, err := execute(t, ta.app, "", "list", "devices", "--page-size", "5", "--max-pages", "2", "--grep", "scanner 7")
	require.NoError(t, err)
	assert.Contains(t, out, "Scanner 7")
	assert.NotContains(t, out, "Scanner 8")
	assert.Contains(t, errOut, "devices: 1 rows of 10")
}

func TestListPartialFailure(t *testing.T) {
	srv := newAPIServer(t)
	ta := newTestApp(t, srv.URL, goodToken)

	out, errOut, err := execute(t, ta.app, "", "list", "devices", "users", "--page-size", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users")
	assert.NotContains(t, err.Error(), "devices")

	assert.Contains(t, out, "== Devices ==")
	assert.Contains(t, out, "== Users ==")
	assert.Contains(t, out, "Scanner 5")
	assert.Contains(t, errOut, "users: database maintenance")
}

func TestListRejectsBadInput(t *testing.T) {
	srv := newAPIServer(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown resource", args: []string{"list", "widgets"}, wantErr: "unknown resource"},
		{name: "bad status", args: []string{"list", "devices", "--status", "broken"}, wantErr: `invalid status "broken"`},
		{name: "status on history", args: []string{"list", "history", "--status", "open"}, wantErr: "cannot be filtered by status"},
		{name: "negative max pages", args: []string{"list", "devices", "--max-pages", "-1"}, wantErr: "--max-pages"},
		{name: "page size too large", args: []string{"list", "devices", "--page-size", "1000"}, wantErr: "invalid configuration"},
		{name: "unknown failure policy", args: []string{"list", "devices", "--on-error", "explode"}, wantErr: "paging.on_error"},
		{name: "no resource", args: []string{"list"}, wantErr: "requires at least 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t, srv.URL, goodToken)
			_, _, err := execute(t, ta.app, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestListUnknownResourceIsTyped(t *testing.T) {
	ta := newTestApp(t, "http://example.invalid", goodToken)
	_, _, err := execute(t, ta.app, "", "list", "widgets")
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
}

func TestListRequiresServer(t *testing.T) {
	ta := newTestApp(t, "", "")
	_, _, err := execute(t, ta.app, "", "list", "devices")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no server configured")
}

func TestTokenSavesTrimmedInput(t *testing.T) {
	ta := newTestApp(t, "", "")
	out, _, err := execute(t, ta.app, "  secret-value \nignored\n", "token")
	require.NoError(t, err)
	assert.Equal(t, []string{"secret-value"}, ta.saved)
	assert.Contains(t, out, "Token saved to")
}

func TestTokenRejectsEmpty(t *testing.T) {
	ta := newTestApp(t, "", "")
	_, _, err := execute(t, ta.app, "   \n", "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty token")
	assert.Empty(t, ta.saved)
}

func TestTokenCheck(t *testing.T) {
	srv := newAPIServer(t)

	t.Run("accepted", func(t *testing.T) {
		ta := newTestApp(t, srv.URL, "")
		_, errOut, err := execute(t, ta.app, goodToken+"\n", "token", "--check")
		require.NoError(t, err)
		assert.Contains(t, errOut, "Token accepted")
		assert.Equal(t, []string{goodToken}, ta.saved)
	})

	t.Run("rejected", func(t *testing.T) {
		ta := newTestApp(t, srv.URL, "")
		_, _, err := execute(t, ta.app, "wrong\n", "token", "--check")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "token rejected")
		assert.Empty(t, ta.saved)
	})

	t.Run("no server", func(t *testing.T) {
		ta := newTestApp(t, "", "")
		_, _, err := execute(t, ta.app, goodToken+"\n", "token", "--check")
		require.Error(t, err)
		assert.Empty(t, ta.saved)
	})
}

func TestVersionCommand(t *testing.T) {
	ta := newTestApp(t, "", "")
	out, _, err := execute(t, ta.app, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "palmgate 1.2.3\n", out)
}

func TestResourcesCommand(t *testing.T) {
	ta := newTestApp(t, "", "")
	out, _, err := execute(t, ta.app, "", "resources")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(domain.Resources())+1)
	assert.Contains(t, out, "online,offline,maintenance")
	for _, r := range domain.Resources() {
		assert.Contains(t, out, string(r))
	}
}

func TestRootRequiresConfiguration(t *testing.T) {
	ta := newTestApp(t, "", "")
	_, _, err := execute(t, ta.app, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "palmgate token")
}

func TestRootRequiresTerminal(t *testing.T) {
	ta := newTestApp(t, "http://example.invalid", goodToken)
	_, _, err := execute(t, ta.app, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "palmgate list")
}

// withStore points ta's preferences at a fresh directory and seeds it.
func withStore(t *testing.T, ta *testApp, serverURL string, seed func(*store.PrefsStore)) string {
	t.Helper()
	dir := t.TempDir()
	load := ta.loadConfig
	ta.loadConfig = func() (*adapter.Config, error) {
		cfg, err := load()
		if err != nil {
			return nil, err
		}
		cfg.Store.Path = dir
		return cfg, nil
	}

	prefs, err := store.NewPrefsStore(dir, serverURL)
	require.NoError(t, err)
	seed(prefs)
	require.NoError(t, prefs.Close())
	return dir
}

func seedPrefs(t *testing.T) func(*store.PrefsStore) {
	return func(prefs *store.PrefsStore) {
		require.NoError(t, prefs.SaveScreen(domain.ResourceDevices, store.ScreenPrefs{Status: "online", Query: "scanner"}))
		require.NoError(t, prefs.SaveScreen(domain.ResourceReports, store.ScreenPrefs{Status: "open"}))
		require.NoError(t, prefs.AddRecentQuery("lobby"))
		require.NoError(t, prefs.AddRecentQuery("scanner"))
	}
}

func TestPrefsShow(t *testing.T) {
	ta := newTestApp(t, "http://example.invalid", goodToken)
	withStore(t, ta, "http://example.invalid", seedPrefs(t))

	out, _, err := execute(t, ta.app, "", "prefs", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "RESOURCE")
	assert.Regexp(t, `devices\s+online\s+scanner`, out)
	assert.Regexp(t, `reports\s+open\s+-`, out)
	assert.NotContains(t, out, "users")
	assert.Contains(t, out, "Recent filters:\n  scanner\n  lobby\n")
}

func TestPrefsResetOneResource(t *testing.T) {
	ta := newTestApp(t, "http://example.invalid", goodToken)
	dir := withStore(t, ta, "http://example.invalid", seedPrefs(t))

	out, _, err := execute(t, ta.app, "", "prefs", "reset", "device")
	require.NoError(t, err)
	assert.Contains(t, out, "Forgot devices")

	prefs, err := store.NewPrefsStore(dir, "http://example.invalid")
	require.NoError(t, err)
	defer prefs.Close()

	_, ok := prefs.Screen(domain.ResourceDevices)
	assert.False(t, ok)
	_, ok = prefs.Screen(domain.ResourceReports)
	assert.True(t, ok)
	assert.Equal(t, []string{"scanner", "lobby"}, prefs.RecentQueries())
}

func TestPrefsResetAll(t *testing.T) {
	ta := newTestApp(t, "http://example.invalid", goodToken)
	dir := withStore(t, ta, "http://example.invalid", seedPrefs(t))

	out, _, err := execute(t, ta.app, "", "prefs", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "All preferences cleared")

	prefs, err := store.NewPrefsStore(dir, "http://example.invalid")
	require.NoError(t, err)
	defer prefs.Close()

	_, ok := prefs.Screen(domain.ResourceReports)
	assert.False(t, ok)
	assert.Empty(t, prefs.RecentQueries())
}

func TestPrefsResetRejectsUnknownResource(t *testing.T) {
	ta := newTestApp(t, "http://example.invalid", goodToken)
	withStore(t, ta, "http://example.invalid", seedPrefs(t))

	_, _, err := execute(t, ta.app, "", "prefs", "reset", "widgets")
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
}
