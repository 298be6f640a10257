package domain

// RawRecord is one source record as fetched by an adapter, before
// normalisation.
type RawRecord struct {
	// Ref is a human-readable reference used in logs (bill number, item ID).
	Ref string

	// Payload is the record body, usually JSON.
	Payload []byte

	// Metadata carries adapter-specific context gathered while fetching
	// (the parent meeting of an agenda item, the page it came from).
	Metadata map[string]string
}

// RawPage is one page of raw records.
type RawPage struct {
	Records []RawRecord

	// NextCursor is the cursor for the following page, empty when done.
	NextCursor string
}
