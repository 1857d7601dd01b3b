package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/metalens/internal/errors"
	"github.com/vango-dev/metalens/internal/store"
	"github.com/vango-dev/metalens/pkg/seo"
)

const testPage = `<!DOCTYPE html>
<html><head>
<title>Example Domain: a page used in documentation examples</title>
<meta name="description" content="This domain is for use in illustrative examples in documents. You may use this domain in literature without prior coordination.">
<meta property="og:title" content="Example Domain">
<meta name="twitter:card" content="summary">
</head><body><h1>Example Domain</h1></body></html>`

func init() {
	errors.DisableColors()
}

// pageServer serves testPage at / and 404 everywhere else.
func pageServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testPage))
	}))
	t.Cleanup(ts.Close)
	return ts
}

// useTempStore points the history database at a fresh file.
func useTempStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	t.Setenv("METALENS_STORE_PATH", path)
	return path
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestVersionShort(t *testing.T) {
	out, _, err := run(t, "version", "--short")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != version+"\n" {
		t.Errorf("got %q, want %q", out, version+"\n")
	}
}

func TestVersionLong(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	for _, want := range []string{"Version:    dev", "Commit:", "OS/Arch:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeJSONAndHistory(t *testing.T) {
	ts := pageServer(t)
	useTempStore(t)

	out, stderr, err := run(t, "analyze", "--format", "json", "--save", ts.URL)
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, stderr)
	}
	var res seo.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if res.Meta.Title != "Example Domain: a page used in documentation examples" {
		t.Errorf("title: got %q", res.Meta.Title)
	}
	if !strings.Contains(stderr, "Saved 1 analyses") {
		t.Errorf("stderr should confirm the save:\n%s", stderr)
	}

	out, _, err = run(t, "history", "--format", "json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var list []store.Summary
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if len(list) != 1 || list[0].ID != res.ID {
		t.Fatalf("history: got %+v, want the saved analysis %s", list, res.ID)
	}

	out, _, err = run(t, "history")
	if err != nil {
		t.Fatalf("history table: %v", err)
	}
	if !strings.Contains(out, "SCORE") || !strings.Contains(out, res.ID) {
		t.Errorf("table output:\n%s", out)
	}

	out, _, err = run(t, "history", "--domain", res.Domain)
	if err != nil {
		t.Fatalf("history --domain: %v", err)
	}
	if !strings.Contains(out, "Analyses:      1") {
		t.Errorf("domain stats:\n%s", out)
	}
}

func TestHistoryEmpty(t *testing.T) {
	useTempStore(t)
	out, _, err := run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No analyses stored yet") {
		t.Errorf("got %q", out)
	}
}

func TestHistoryBadFormat(t *testing.T) {
	useTempStore(t)
	if _, _, err := run(t, "history", "--format", "csv"); err == nil {
		t.Fatal("unknown format should fail")
	}
}

func TestAnalyzeSingleFailure(t *testing.T) {
	ts := pageServer(t)
	_, _, err := run(t, "analyze", ts.URL+"/missing")
	if got := errors.CodeOf(err); got != errors.CodeHTTPStatus {
		t.Fatalf("code: got %q (%v), want %s", got, err, errors.CodeHTTPStatus)
	}
}

func TestAnalyzeMixedResults(t *testing.T) {
	ts := pageServer(t)
	bad := ts.URL + "/missing"

	out, stderr, err := run(t, "analyze", ts.URL, bad)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 analyses failed") {
		t.Fatalf("error: got %v", err)
	}
	if !strings.Contains(out, "Score:") {
		t.Errorf("the good page should still be reported:\n%s", out)
	}
	if !strings.Contains(stderr, bad) {
		t.Errorf("stderr should name the failed URL:\n%s", stderr)
	}
}

func TestAnalyzeBadFormat(t *testing.T) {
	if _, _, err := run(t, "analyze", "--format", "pdf", "example.com"); err == nil {
		t.Fatal("unknown format should fail")
	}
}

func TestAnalyzeRequiresURL(t *testing.T) {
	if _, _, err := run(t, "analyze"); err == nil {
		t.Fatal("analyze without arguments should fail")
	}
}

func TestExportRequiresBucket(t *testing.T) {
	useTempStore(t)
	_, _, err := run(t, "export", "some-id")
	if got := errors.CodeOf(err); got != errors.CodeExport {
		t.Fatalf("code: got %q (%v), want %s", got, err, errors.CodeExport)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := run(t, "--log-level", "loud", "version")
	if got := errors.CodeOf(err); got != errors.CodeConfigInvalid {
		t.Fatalf("code: got %q (%v), want %s", got, err, errors.CodeConfigInvalid)
	}
}
