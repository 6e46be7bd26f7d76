package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/nao1215/profscan/internal/fetch"
	"github.com/nao1215/profscan/internal/model"
)

const pageURL = "https://example.com/advisor/max-mustermann"

// page wraps body content in a minimal HTML document.
func page(body string) []byte {
	return []byte("<html><head></head><body>" + body + "</body></html>")
}

// jsonLD wraps a JSON payload in a ld+json script tag.
func jsonLD(payload string) string {
	return `<script type="application/ld+json">` + payload + `</script>`
}

// TestParseJSONLD tests the primary extraction pass.
func TestParseJSONLD(t *testing.T) {
	t.Parallel()

	t.Run("extracts all fields from a person block", func(t *testing.T) {
		t.Parallel()

		body := page(jsonLD(`{
			"@context": "https://schema.org",
			"@type": "Person",
			"name": "Max Mustermann",
			"telephone": ["+49 69 123", "+49 171 456"],
			"email": "Max.Mustermann@Example.COM",
			"address": {
				"@type": "PostalAddress",
				"streetAddress": " Zeil 1 ",
				"postalCode": "60311",
				"addressLocality": "Frankfurt am Main"
			}
		}`))

		record, err := Parse(body, pageURL)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}

		want := &model.ProfileRecord{
			Name:           "Max Mustermann",
			PrimaryPhone:   "+4969123",
			SecondaryPhone: "+49171456",
			PostalCode:     "60311",
			City:           "Frankfurt am Main",
			Street:         "Zeil 1",
			Email:          "max.mustermann@example.com",
			SourceURL:      pageURL,
		}
		if !reflect.DeepEqual(record, want) {
			t.Errorf("record mismatch:\n got %+v\nwant %+v", record, want)
		}
	})

	t.Run("reads contactPoint and graph containers", func(t *testing.T) {
		t.Parallel()

		body := page(jsonLD(`{
			"@context": "https://schema.org",
			"@graph": [
				{"@type": "WebSite", "name": "Site"},
				{
					"@type": "FinancialService",
					"name": "Erika Musterfrau",
					"contactPoint": {
						"@type": "ContactPoint",
						"telephone": "+49 89 777",
						"email": "erika@example.com"
					}
				}
			]
		}`))

		record, err := Parse(body, pageURL)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if record.Name != "Erika Musterfrau" {
			t.Errorf("expected graph candidate's name, got %q", record.Name)
		}
		if record.PrimaryPhone != "+4989777" {
			t.Errorf("unexpected phone: %q", record.PrimaryPhone)
		}
		if record.Email != "erika@example.com" {
			t.Errorf("unexpected email: %q", record.Email)
		}
	})

	t.Run("ignores non-candidate types and malformed blocks", func(t *testing.T) {
		t.Parallel()

		body := page(
			jsonLD(`{"@type": "BreadcrumbList", "name": "Navigation"}`) +
				jsonLD(`{not json`) +
				jsonLD(`{"@type": "person", "name": "Lower Case Type"}`),
		)

		record, err := Parse(body, pageURL)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if record.Name != "Lower Case Type" {
			t.Errorf("expected the candidate block's name, got %q", record.Name)
		}
	})
}

// TestParseFallback tests the microdata pass and merge precedence.
func TestParseFallback(t *testing.T) {
	t.Parallel()

	t.Run("microdata fills fields missing from structured data", func(t *testing.T) {
		t.Parallel()

		body := page(
			jsonLD(`{"@type": "Person", "name": "Max Mustermann", "telephone": "+49 69 123"}`) +
				`<span itemprop="name">Wrong Name</span>` +
				`<span itemprop="telephone">+49 171 456</span>` +
				`<span itemprop="postalCode">60311</span>` +
				`<span itemprop="addressLocality">Frankfurt</span>` +
				`<span itemprop="streetAddress">Zeil 1</span>` +
				`<a href="mailto:Max@Example.com">Mail</a>`,
		)

		record, err := Parse(body, pageURL)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}

		// Primary takes precedence for fields present in both sources.
		if record.Name != "Max Mustermann" {
			t.Errorf("json-ld name should win, got %q", record.Name)
		}
		if record.PrimaryPhone != "+4969123" {
			t.Errorf("json-ld phone should stay primary, got %q", record.PrimaryPhone)
		}
		// Fallback fills the rest.
		if record.SecondaryPhone != "+49171456" {
			t.Errorf("microdata phone should become secondary, got %q", record.SecondaryPhone)
		}
		if record.PostalCode != "60311" || record.City != "Frankfurt" || record.Street != "Zeil 1" {
			t.Errorf("address fields not filled from microdata: %+v", record)
		}
		if record.Email != "max@example.com" {
			t.Errorf("mailto fallback not applied: %q", record.Email)
		}
	})

	t.Run("microdata alone yields a record", func(t *testing.T) {
		t.Parallel()

		body := page(
			`<div itemscope itemtype="https://schema.org/Person">` +
				`<span itemprop="name">Hans Beispiel</span>` +
				`<span itemprop="telephone" content="+49 30 555">030/555</span>` +
				`</div>`,
		)

		record, err := Parse(body, pageURL)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if record.Name != "Hans Beispiel" {
			t.Errorf("unexpected name: %q", record.Name)
		}
		if record.PrimaryPhone != "+4930555" {
			t.Errorf("content attribute should win over text: %q", record.PrimaryPhone)
		}
	})
}

// TestParsePhones tests phone normalization and ordering.
func TestParsePhones(t *testing.T) {
	t.Parallel()

	t.Run("first two distinct values in source order", func(t *testing.T) {
		t.Parallel()

		body := page(jsonLD(`{
			"@type": "Person",
			"name": "Max Mustermann",
			"telephone": ["+49 123", "+49 456", "+49 123"]
		}`))

		record, err := Parse(body, pageURL)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if record.PrimaryPhone != "+49123" {
			t.Errorf("expected +49123, got %q", record.PrimaryPhone)
		}
		if record.SecondaryPhone != "+49456" {
			t.Errorf("expected +49456, got %q", record.SecondaryPhone)
		}
	})

	t.Run("third and later phones are dropped", func(t *testing.T) {
		t.Parallel()

		body := page(jsonLD(`{
			"@type": "Person",
			"name": "Max",
			"telephone": ["+49 1", "+49 2", "+49 3"]
		}`))

		record, err := Parse(body, pageURL)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if record.PrimaryPhone != "+491" || record.SecondaryPhone != "+492" {
			t.Errorf("unexpected phones: %q, %q", record.PrimaryPhone, record.SecondaryPhone)
		}
	})

	t.Run("formatting is stripped", func(t *testing.T) {
		t.Parallel()

		cases := map[string]string{
			"+49 (69) 123-456": "+4969123456",
			"069 / 123 456":    "069123456",
			"  +49.171.9999  ": "+491719999",
		}
		for raw, want := range cases {
			if got := normalizePhone(raw); got != want {
				t.Errorf("normalizePhone(%q) = %q, want %q", raw, got, want)
			}
		}
	})
}

// TestParseEmail tests email validation.
func TestParseEmail(t *testing.T) {
	t.Parallel()

	t.Run("invalid email is absent not fatal", func(t *testing.T) {
		t.Parallel()

		body := page(jsonLD(`{"@type": "Person", "name": "Max", "email": "not-an-email"}`))

		record, err := Parse(body, pageURL)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if record.Email != "" {
			t.Errorf("invalid email should be empty, got %q", record.Email)
		}
	})

	t.Run("validation rules", func(t *testing.T) {
		t.Parallel()

		valid := map[string]string{
			"Max@Example.COM":             "max@example.com",
			"mailto:info@example.de":      "info@example.de",
			"mailto:a@b.de?subject=Hallo": "a@b.de",
		}
		for raw, want := range valid {
			got, ok := normalizeEmail(raw)
			if !ok || got != want {
				t.Errorf("normalizeEmail(%q) = %q, %v; want %q, true", raw, got, ok, want)
			}
		}

		invalid := []string{"", "plain", "two@@example.com", "a@b@c.de", "@example.com", "max@", "a b@example.com"}
		for _, raw := range invalid {
			if got, ok := normalizeEmail(raw); ok {
				t.Errorf("normalizeEmail(%q) = %q, expected rejection", raw, got)
			}
		}
	})
}

// TestParseMissingName tests the required-field boundary.
func TestParseMissingName(t *testing.T) {
	t.Parallel()

	body := page(
		jsonLD(`{"@type": "Person", "telephone": "+49 69 123"}`) +
			`<span itemprop="telephone">+49 171 456</span>`,
	)

	_, err := Parse(body, pageURL)
	if !errors.Is(err, ErrMissingName) {
		t.Fatalf("expected ErrMissingName, got %v", err)
	}

	failure := Failure(pageURL, err)
	if failure.Kind != model.FailureKindMissingRequiredField {
		t.Errorf("expected missing-required-field, got %s", failure.Kind)
	}
	if failure.URL != pageURL {
		t.Errorf("unexpected failure url: %q", failure.URL)
	}
}

// TestParseIdempotence tests that re-parsing unchanged bytes yields a
// bit-identical record.
func TestParseIdempotence(t *testing.T) {
	t.Parallel()

	body := page(
		jsonLD(`{"@type": "Person", "name": "Max", "telephone": ["+49 1", "+49 2"]}`) +
			`<span itemprop="postalCode">60311</span>`,
	)

	first, err := Parse(body, pageURL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	for range 5 {
		again, err := Parse(body, pageURL)
		if err != nil {
			t.Fatalf("re-parse failed: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("parse not idempotent:\nfirst %+v\nagain %+v", first, again)
		}
	}
}

// TestExtract tests the fetch-then-parse flow and failure classification.
func TestExtract(t *testing.T) {
	t.Parallel()

	t.Run("fetch failure classifies as network", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := fetch.New(&http.Client{Timeout: time.Second}, fetch.WithRetryLimit(0))
		extractor := NewExtractor(client)

		_, err := extractor.Extract(context.Background(), srv.URL+"/advisor/max")
		if err == nil {
			t.Fatal("expected error")
		}
		failure := Failure(srv.URL+"/advisor/max", err)
		if failure.Kind != model.FailureKindNetwork {
			t.Errorf("expected network kind, got %s", failure.Kind)
		}
	})

	t.Run("successful extraction over http", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = fmt.Fprint(w, string(page(jsonLD(`{"@type": "Person", "name": "Max"}`))))
		}))
		defer srv.Close()

		client := fetch.New(&http.Client{Timeout: time.Second})
		extractor := NewExtractor(client)

		record, err := extractor.Extract(context.Background(), srv.URL+"/advisor/max")
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		if record.Name != "Max" {
			t.Errorf("unexpected name: %q", record.Name)
		}
		if record.SourceURL != srv.URL+"/advisor/max" {
			t.Errorf("source url not set: %q", record.SourceURL)
		}
	})
}
