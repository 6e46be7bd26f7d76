package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// collectMicrodata runs the fallback pass: itemprop-tagged elements and
// mailto: anchors fill whatever the primary pass left empty. Phones append
// after the primary pass's phones, so JSON-LD values keep precedence in
// the primary/secondary ordering.
func collectMicrodata(doc *goquery.Document, f *fields) {
	if f.name == "" {
		if sel := doc.Find(`[itemprop="name"]`).First(); sel.Length() > 0 {
			f.setName(sel.Text())
		}
	}

	doc.Find(`[itemprop="telephone"]`).Each(func(_ int, sel *goquery.Selection) {
		// The content attribute wins over element text when present,
		// matching how microdata encodes machine-readable values.
		if content, ok := sel.Attr("content"); ok && strings.TrimSpace(content) != "" {
			f.addPhone(content)
			return
		}
		f.addPhone(sel.Text())
	})

	if f.street == "" {
		if sel := doc.Find(`[itemprop="streetAddress"]`).First(); sel.Length() > 0 {
			f.setStreet(sel.Text())
		}
	}
	if f.zip == "" {
		if sel := doc.Find(`[itemprop="postalCode"]`).First(); sel.Length() > 0 {
			f.setZip(sel.Text())
		}
	}
	if f.city == "" {
		if sel := doc.Find(`[itemprop="addressLocality"]`).First(); sel.Length() > 0 {
			f.setCity(sel.Text())
		}
	}

	if f.email == "" {
		if sel := doc.Find(`[itemprop="email"]`).First(); sel.Length() > 0 {
			f.setEmail(sel.Text())
		}
	}
	if f.email == "" {
		doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, ok := sel.Attr("href")
			if !ok {
				return true
			}
			f.setEmail(href)
			return f.email == ""
		})
	}
}
