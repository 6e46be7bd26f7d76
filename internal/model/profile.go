package model

// ProfileRecord is one extracted profile page.
//
// All fields are plain strings. Optional fields that were absent in the
// source document hold the empty string rather than a pointer or omitted
// value, so the export column layout is identical for every record.
type ProfileRecord struct {
	// Name is the profile holder's display name. Required: extraction
	// never emits a record without it.
	Name string `json:"name"`

	// PrimaryPhone is the first distinct phone number found, with
	// formatting stripped.
	PrimaryPhone string `json:"primary_phone"`

	// SecondaryPhone is the second distinct phone number, if any.
	SecondaryPhone string `json:"secondary_phone"`

	// PostalCode is the postal code of the listed address, verbatim.
	PostalCode string `json:"postal_code"`

	// City is the locality of the listed address, verbatim.
	City string `json:"city"`

	// Street is the street address, verbatim.
	Street string `json:"street"`

	// Email is the contact email, lower-cased. Empty if absent or invalid.
	Email string `json:"email"`

	// SourceURL is the profile page this record was extracted from.
	// Always populated for traceability.
	SourceURL string `json:"source_url"`
}

// Columns returns the fixed export column schema.
// The order never changes, regardless of which fields are populated.
func Columns() []string {
	return []string{
		"Name",
		"PrimaryPhone",
		"SecondaryPhone",
		"PostalCode",
		"City",
		"Street",
		"Email",
		"SourceURL",
	}
}

// Row returns the record's values in Columns() order.
func (r ProfileRecord) Row() []string {
	return []string{
		r.Name,
		r.PrimaryPhone,
		r.SecondaryPhone,
		r.PostalCode,
		r.City,
		r.Street,
		r.Email,
		r.SourceURL,
	}
}
