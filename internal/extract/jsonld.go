package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// candidateTypes are the schema.org @type values that mark a JSON-LD block
// as describing the profile holder. Comparison is case-insensitive.
var candidateTypes = map[string]bool{
	"person":              true,
	"financialservice":    true,
	"localbusiness":       true,
	"professionalservice": true,
}

// collectJSONLD runs the primary extraction pass: every JSON-LD script
// block is decoded and candidate objects contribute values in document
// order. A malformed block is skipped; it never fails the page.
func collectJSONLD(doc *goquery.Document, f *fields) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}

		var payload any
		if err := json.Unmarshal([]byte(text), &payload); err != nil {
			return
		}

		for _, item := range flattenJSONLD(payload) {
			if isCandidate(item) {
				applyJSONLD(item, f)
			}
		}
	})
}

// flattenJSONLD unwraps top-level arrays and @graph containers into a flat
// list of objects, preserving document order.
func flattenJSONLD(payload any) []map[string]any {
	items := make([]map[string]any, 0, 1)

	var walk func(any)
	walk = func(v any) {
		switch val := v.(type) {
		case []any:
			for _, child := range val {
				walk(child)
			}
		case map[string]any:
			items = append(items, val)
			if graph, ok := val["@graph"]; ok {
				walk(graph)
			}
		}
	}
	walk(payload)

	return items
}

// isCandidate reports whether the object's @type intersects candidateTypes.
func isCandidate(item map[string]any) bool {
	for _, t := range asList(item["@type"]) {
		if s, ok := t.(string); ok && candidateTypes[strings.ToLower(s)] {
			return true
		}
	}
	return false
}

// applyJSONLD maps one candidate object's known schema paths onto fields.
func applyJSONLD(item map[string]any, f *fields) {
	if name, ok := item["name"].(string); ok {
		f.setName(name)
	}

	for _, phone := range asList(item["telephone"]) {
		if s, ok := phone.(string); ok {
			f.addPhone(s)
		}
	}

	for _, cp := range asList(item["contactPoint"]) {
		contact, ok := cp.(map[string]any)
		if !ok {
			continue
		}
		if phone, ok := contact["telephone"].(string); ok {
			f.addPhone(phone)
		}
		if email, ok := contact["email"].(string); ok {
			f.setEmail(email)
		}
	}

	if address, ok := item["address"].(map[string]any); ok {
		if street, ok := address["streetAddress"].(string); ok {
			f.setStreet(street)
		}
		if zip, ok := address["postalCode"].(string); ok {
			f.setZip(zip)
		}
		if city, ok := address["addressLocality"].(string); ok {
			f.setCity(city)
		}
	}

	if email, ok := item["email"].(string); ok {
		f.setEmail(email)
	}
}

// asList wraps scalar values so single values and arrays read the same way,
// mirroring how JSON-LD allows both forms for most properties.
func asList(v any) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	default:
		return []any{val}
	}
}
