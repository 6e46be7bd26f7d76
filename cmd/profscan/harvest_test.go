package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/profscan/internal/model"
)

// newHarvestTestServer serves a small site: one sitemap with two profile
// pages and one non-profile page.
func newHarvestTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/advisor/max</loc></url>
  <url><loc>%s/advisor/maria</loc></url>
  <url><loc>%s/imprint</loc></url>
</urlset>`, srv.URL, srv.URL, srv.URL)
	})
	mux.HandleFunc("/advisor/max", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><script type="application/ld+json">
{"@type": "Person", "name": "Max Mustermann", "telephone": "+49 69 123",
 "address": {"postalCode": "60311", "addressLocality": "Frankfurt"}}
</script></body></html>`)
	})
	mux.HandleFunc("/advisor/maria", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>
<span itemprop="name">Maria Beispiel</span>
<span itemprop="telephone">+49 30 555</span>
</body></html>`)
	})
	mux.HandleFunc("/imprint", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>Imprint</body></html>`)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// fastCrawlArgs returns the flags that make a test harvest fast.
func fastCrawlArgs(srv *httptest.Server) []string {
	return []string{
		"--sitemap", srv.URL + "/sitemap.xml",
		"--marker", "/advisor/",
		"--min-delay", "0s",
		"--max-delay", "0s",
		"--retries", "0",
		"--timeout", "5s",
	}
}

// TestHarvestCmd tests the full pipeline through the CLI.
func TestHarvestCmd(t *testing.T) {
	t.Parallel()

	t.Run("exports discovered profiles as csv", func(t *testing.T) {
		t.Parallel()

		srv := newHarvestTestServer(t)
		outputPath := filepath.Join(t.TempDir(), "profiles.csv")

		root := NewRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(append([]string{"harvest",
			"--output", outputPath,
			"--format", "csv",
			"--no-db",
		}, fastCrawlArgs(srv)...))

		if err := root.Execute(); err != nil {
			t.Fatalf("harvest failed: %v\noutput: %s", err, out.String())
		}

		f, err := os.Open(outputPath) //nolint:gosec
		if err != nil {
			t.Fatalf("failed to open export: %v", err)
		}
		defer f.Close() //nolint:errcheck

		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected header plus 2 profiles, got %d rows", len(rows))
		}

		names := map[string]bool{}
		for _, row := range rows[1:] {
			names[row[0]] = true
		}
		if !names["Max Mustermann"] || !names["Maria Beispiel"] {
			t.Errorf("unexpected profiles: %v", names)
		}

		if !strings.Contains(out.String(), "HARVEST SUMMARY") {
			t.Error("expected terminal summary")
		}
		if !strings.Contains(out.String(), "Discovered: 2 profile URLs") {
			t.Errorf("expected discovery count in summary, got:\n%s", out.String())
		}
	})

	t.Run("exports wrapped json", func(t *testing.T) {
		t.Parallel()

		srv := newHarvestTestServer(t)
		outputPath := filepath.Join(t.TempDir(), "report.json")

		root := NewRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(append([]string{"harvest",
			"--output", outputPath,
			"--format", "json",
			"--no-db",
		}, fastCrawlArgs(srv)...))

		if err := root.Execute(); err != nil {
			t.Fatalf("harvest failed: %v\noutput: %s", err, out.String())
		}

		data, err := os.ReadFile(outputPath) //nolint:gosec
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}

		var decoded struct {
			Version string               `json:"version"`
			Report  *model.HarvestReport `json:"report"`
			Summary model.Summary        `json:"summary"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("failed to decode export: %v", err)
		}
		if decoded.Version == "" {
			t.Error("expected version in wrapped report")
		}
		if decoded.Summary.Succeeded != 2 {
			t.Errorf("expected 2 successes, got %+v", decoded.Summary)
		}
		if decoded.Report.Marker != "/advisor/" {
			t.Errorf("unexpected marker: %q", decoded.Report.Marker)
		}
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"harvest", "--format", "pdf", "--no-db"})

		if err := root.Execute(); err == nil {
			t.Fatal("expected configuration error")
		}
	})
}

// TestBuildConfig tests flag and config file precedence.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults without file or flags", func(t *testing.T) {
		t.Parallel()

		cmd := NewHarvestCmd()
		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("buildConfig failed: %v", err)
		}
		if cfg.Workers != 8 {
			t.Errorf("expected default workers, got %d", cfg.Workers)
		}
		if cfg.Marker != "/vermoegensberater/" {
			t.Errorf("expected default marker, got %q", cfg.Marker)
		}
	})

	t.Run("config file applies and flags win", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".profscan")
		content := "marker: /from-file/\nworkers: 3\nminDelay: 10ms\nmaxDelay: 20ms\n"
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cmd := NewHarvestCmd()
		if err := cmd.Flags().Set("config", configPath); err != nil {
			t.Fatalf("failed to set config flag: %v", err)
		}
		if err := cmd.Flags().Set("marker", "/from-flag/"); err != nil {
			t.Fatalf("failed to set marker flag: %v", err)
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("buildConfig failed: %v", err)
		}
		if cfg.Marker != "/from-flag/" {
			t.Errorf("flag should win over file, got %q", cfg.Marker)
		}
		if cfg.Workers != 3 {
			t.Errorf("file value should apply, got %d", cfg.Workers)
		}
		if cfg.MinDelay != 10*time.Millisecond || cfg.MaxDelay != 20*time.Millisecond {
			t.Errorf("file delays should apply, got %v/%v", cfg.MinDelay, cfg.MaxDelay)
		}
	})

	t.Run("explicit missing config file is an error", func(t *testing.T) {
		t.Parallel()

		cmd := NewHarvestCmd()
		if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
			t.Fatalf("failed to set config flag: %v", err)
		}

		if _, err := buildConfig(cmd); err == nil {
			t.Fatal("expected error for missing config file")
		}
	})
}

// TestFormatExtension tests output path derivation.
func TestFormatExtension(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"csv":      "csv",
		"xlsx":     "xlsx",
		"json":     "json",
		"markdown": "md",
	}
	for format, want := range cases {
		if got := formatExtension(format); got != want {
			t.Errorf("formatExtension(%q) = %q, want %q", format, got, want)
		}
	}
}
