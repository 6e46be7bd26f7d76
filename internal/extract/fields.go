package extract

import "strings"

// fields accumulates candidate values for one record during extraction.
// Phones collect in order of appearance; the first two distinct normalized
// values become primary and secondary in the final record.
type fields struct {
	name   string
	phones []string
	street string
	zip    string
	city   string
	email  string
}

// setName stores the first non-empty trimmed name.
func (f *fields) setName(value string) {
	if f.name == "" {
		f.name = strings.TrimSpace(value)
	}
}

// addPhone appends a phone candidate, deduplicating by normalized form.
// Appearance order is preserved: no priority between landline and mobile
// is inferred, the source order decides primary versus secondary.
func (f *fields) addPhone(value string) {
	normalized := normalizePhone(value)
	if normalized == "" {
		return
	}
	for _, existing := range f.phones {
		if existing == normalized {
			return
		}
	}
	f.phones = append(f.phones, normalized)
}

// setStreet stores the first non-empty trimmed street address.
func (f *fields) setStreet(value string) {
	if f.street == "" {
		f.street = strings.TrimSpace(value)
	}
}

// setZip stores the first non-empty trimmed postal code.
func (f *fields) setZip(value string) {
	if f.zip == "" {
		f.zip = strings.TrimSpace(value)
	}
}

// setCity stores the first non-empty trimmed locality.
func (f *fields) setCity(value string) {
	if f.city == "" {
		f.city = strings.TrimSpace(value)
	}
}

// setEmail stores the first valid email candidate. Invalid candidates are
// ignored rather than reported: a bad email never fails an extraction.
func (f *fields) setEmail(value string) {
	if f.email != "" {
		return
	}
	if normalized, ok := normalizeEmail(value); ok {
		f.email = normalized
	}
}

// normalizePhone strips formatting and whitespace from a phone number,
// keeping digits and a leading plus sign.
func normalizePhone(value string) string {
	value = strings.TrimSpace(value)
	var b strings.Builder
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	normalized := b.String()
	if normalized == "+" {
		return ""
	}
	return normalized
}

// normalizeEmail lower-cases and validates an email candidate. Valid means
// exactly one "@" with non-empty local and domain parts.
func normalizeEmail(value string) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.TrimPrefix(value, "mailto:")
	// Strip mailto query parameters such as ?subject=.
	if idx := strings.IndexByte(value, '?'); idx >= 0 {
		value = value[:idx]
	}
	if value == "" || strings.ContainsAny(value, " \t") {
		return "", false
	}
	at := strings.IndexByte(value, '@')
	if at <= 0 || at != strings.LastIndexByte(value, '@') {
		return "", false
	}
	if at == len(value)-1 {
		return "", false
	}
	return value, true
}
