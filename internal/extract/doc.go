// Package extract parses profile pages into structured records.
//
// # Extraction strategy
//
// Extraction runs two ordered passes over the parsed document and the
// first success per field wins:
//
//  1. Primary: JSON-LD blocks (script type="application/ld+json") whose
//     schema.org @type marks them as a person or business are mapped to
//     record fields.
//  2. Fallback: microdata itemprop attributes (and mailto: anchors for
//     email) fill any field the primary pass left empty.
//
// Field values are normalized on the way in: phone numbers lose their
// formatting, emails are lower-cased and validated, address parts are
// trimmed. A page without a name in either source yields no record.
package extract
