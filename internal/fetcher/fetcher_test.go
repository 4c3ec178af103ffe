package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byteowlz/tailr/internal/logging"
)

const plainPosting = `<html><body><h1>Backend Engineer</h1><main>` +
	`A long enough server-rendered description of the role, the team and what we expect from you. ` +
	`A long enough server-rendered description of the role, the team and what we expect from you. ` +
	`A long enough server-rendered description of the role, the team and what we expect from you. ` +
	`A long enough server-rendered description of the role, the team and what we expect from you. ` +
	`A long enough server-rendered description of the role, the team and what we expect from you. ` +
	`A long enough server-rendered description of the role, the team and what we expect from you.` +
	`</main></body></html>`

const appShell = `<html><body><div id="root"></div><script src="/bundle.js"></script></body></html>`

type fakePage struct{ url string }

func (p fakePage) URL() string                              { return p.url }
func (p fakePage) Snapshot(context.Context) (string, error) { return "<html>rendered</html>", nil }
func (p fakePage) Close() error                             { return nil }

type staticCookies []*http.Cookie

func (c staticCookies) CookiesFor(context.Context, string) ([]*http.Cookie, error) { return c, nil }

func newTestOpener(render RenderMode, launched *int, launchErr error) *Opener {
	o := NewOpener(Options{Render: render, Log: logging.Discard()})
	o.launch = func(_ context.Context, url string, _ BrowserOptions) (Page, error) {
		*launched++
		if launchErr != nil {
			return nil, launchErr
		}
		return fakePage{url: url}, nil
	}
	return o
}

func TestFetchStatic_SendsBrowserHeadersAndCookies(t *testing.T) {
	var got *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte(plainPosting))
	}))
	defer server.Close()

	page, err := FetchStatic(context.Background(), server.Client(), server.URL+"/careers/1", "test-agent",
		[]*http.Cookie{{Name: "session", Value: "abc"}})
	require.NoError(t, err)

	assert.Equal(t, "test-agent", got.Header.Get("User-Agent"))
	assert.Equal(t, "navigate", got.Header.Get("Sec-Fetch-Mode"))
	c, err := got.Cookie("session")
	require.NoError(t, err)
	assert.Equal(t, "abc", c.Value)

	html, err := page.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, plainPosting, html)
	assert.Equal(t, server.URL+"/careers/1", page.URL())
}

func TestFetchStatic_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := FetchStatic(context.Background(), server.Client(), server.URL, "ua", nil)
	assert.ErrorContains(t, err, "404")
}

func TestStaticPage_SnapshotHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStaticPage("https://example.com/jobs/1", "<p>x</p>").Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpener_RenderNeverStaysStatic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(appShell))
	}))
	defer server.Close()

	launched := 0
	page, err := newTestOpener(RenderNever, &launched, nil).Open(context.Background(), server.URL+"/linkedin.com/jobs/view/1")

	require.NoError(t, err)
	assert.Zero(t, launched)
	assert.IsType(t, &StaticPage{}, page)
}

func TestOpener_RenderAlwaysUsesBrowser(t *testing.T) {
	launched := 0
	page, err := newTestOpener(RenderAlways, &launched, nil).Open(context.Background(), "https://example.com/careers/1")

	require.NoError(t, err)
	assert.Equal(t, 1, launched)
	assert.Equal(t, "https://example.com/careers/1", page.URL())
}

func TestOpener_AutoRendersSPAPlatforms(t *testing.T) {
	launched := 0
	_, err := newTestOpener(RenderAuto, &launched, nil).Open(context.Background(), "https://www.linkedin.com/jobs/view/1")

	require.NoError(t, err)
	assert.Equal(t, 1, launched)
}

func TestOpener_AutoFallsBackToStaticWithoutBrowser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(plainPosting))
	}))
	defer server.Close()

	launched := 0
	page, err := newTestOpener(RenderAuto, &launched, errors.New("chrome not found")).
		Open(context.Background(), server.URL+"/linkedin.com/jobs/view/1")

	require.NoError(t, err)
	assert.Equal(t, 1, launched)
	assert.IsType(t, &StaticPage{}, page)
}

func TestOpener_AutoEscalatesAppShell(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/shell") {
			w.Write([]byte(appShell))
			return
		}
		w.Write([]byte(plainPosting))
	}))
	defer server.Close()

	launched := 0
	o := newTestOpener(RenderAuto, &launched, nil)

	page, err := o.Open(context.Background(), server.URL+"/careers/plain")
	require.NoError(t, err)
	assert.IsType(t, &StaticPage{}, page)
	assert.Zero(t, launched)

	page, err = o.Open(context.Background(), server.URL+"/careers/shell")
	require.NoError(t, err)
	assert.IsType(t, fakePage{}, page)
	assert.Equal(t, 1, launched)
}

func TestOpener_StaticErrorReturnsNilPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	launched := 0
	page, err := newTestOpener(RenderNever, &launched, nil).Open(context.Background(), server.URL+"/jobs/1")

	assert.Error(t, err)
	assert.Nil(t, page)
}

func TestOpener_SendsProviderCookies(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("li_at"); err == nil {
			got = c.Value
		}
		w.Write([]byte(plainPosting))
	}))
	defer server.Close()

	o := NewOpener(Options{
		Render:  RenderNever,
		Cookies: staticCookies{{Name: "li_at", Value: "token"}},
		Log:     logging.Discard(),
	})
	_, err := o.Open(context.Background(), server.URL+"/jobs/1")

	require.NoError(t, err)
	assert.Equal(t, "token", got)
}

func TestNeedsJSRendering(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{"server rendered", plainPosting, false},
		{"react root", appShell, true},
		{"next.js data", `<html><body><script id="__NEXT_DATA__">{}</script><p>hi</p></body></html>`, true},
		{"loading placeholder", `<html><body><p>Loading...</p></body></html>`, true},
		{"script heavy", "<html><body>" + strings.Repeat("<script></script>", 6) + "<p>short</p></body></html>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsJSRendering(tt.html))
		})
	}
}

func TestParseRenderMode(t *testing.T) {
	m, err := ParseRenderMode("ALWAYS")
	require.NoError(t, err)
	assert.Equal(t, RenderAlways, m)

	m, err = ParseRenderMode("")
	require.NoError(t, err)
	assert.Equal(t, RenderAuto, m)

	_, err = ParseRenderMode("sometimes")
	assert.Error(t, err)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posting.html")
	require.NoError(t, os.WriteFile(path, []byte(plainPosting), 0o644))

	page, err := OpenFile(path, "https://jobs.lever.co/acme/1", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://jobs.lever.co/acme/1", page.URL())

	html, err := page.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, plainPosting, html)

	page, err = OpenFile(path, "", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(page.URL(), "file://"))
	assert.True(t, strings.HasSuffix(page.URL(), "/posting.html"))
}

func TestOpenFile_Stdin(t *testing.T) {
	page, err := OpenFile("-", "", strings.NewReader("<p>piped</p>"))
	require.NoError(t, err)

	html, _ := page.Snapshot(context.Background())
	assert.Equal(t, "<p>piped</p>", html)
	assert.Equal(t, "file:///dev/stdin", page.URL())
}

func TestOpenFile_Missing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "nope.html"), "", nil)
	assert.Error(t, err)
}

func TestUserAgentSelector_Pick(t *testing.T) {
	s := NewUserAgentSelector()

	assert.Contains(t, s.Pick("firefox"), "Firefox/")
	assert.Contains(t, s.Pick(" Safari "), "Safari/")
	assert.NotEmpty(t, s.Pick(""))
	assert.Equal(t, "MyBot/1.0", s.Pick("MyBot/1.0"))
}
