// Package writings defines the paragraph records produced by the extraction
// engine.
//
// Every work type has its own record: PrayerParagraph, HiddenWord,
// GleaningParagraph, MeditationParagraph and CDBParagraph. They share the
// Writing interface, which cannot be implemented outside this package, so a
// type switch over the five variants is exhaustive. Cross-cutting fields are
// read through HeaderOf:
//
//	h := writings.HeaderOf(w)
//	fmt.Println(h.Title, h.RefID, h.Text)
//
// Marshal and Unmarshal encode records with a "type" discriminator so mixed
// lists survive a JSON round trip.
package writings
