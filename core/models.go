package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for indexed documents.
// It is derived from record content so re-ingesting a hospital yields the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// keySeparator joins key parts. It cannot appear in trimmed CSV fields.
const keySeparator = "\x1f"

// Metadata field names shared by ingestion and query-time filters.
const (
	FieldHospitalName = "hospital_name"
	FieldAddress      = "address"
	FieldCity         = "city"
	FieldLat          = "lat"
	FieldLon          = "lon"
	FieldSpecialties  = "specialties"
	FieldInsurers     = "insurers"
	FieldRating       = "rating"
	FieldPhone        = "phone"
	FieldWebsite      = "website"
)

// HospitalRecord is the typed form of one normalized source row.
type HospitalRecord struct {
	Name        string
	Address     string
	City        string
	Latitude    float64
	Longitude   float64
	Specialties []string
	Insurers    []string
	Rating      float64
	Phone       string
	Website     string
}

// Key returns the stable document key for the record: a hash of name, city and address.
func (r *HospitalRecord) Key() ID {
	return IDFromContent(r.Name + keySeparator + r.City + keySeparator + r.Address)
}

// KeyFromMetadata derives the stable document key from flattened metadata.
// ok is false when the metadata carries no hospital name.
func KeyFromMetadata(metadata map[string]any) (id ID, ok bool) {
	name, _ := metadata[FieldHospitalName].(string)
	if name == "" {
		return 0, false
	}
	city, _ := metadata[FieldCity].(string)
	address, _ := metadata[FieldAddress].(string)
	r := HospitalRecord{Name: name, City: city, Address: address}
	return r.Key(), true
}

// Metadata returns the record's attributes as tagged values, before flattening.
func (r *HospitalRecord) Metadata() map[string]Value {
	return map[string]Value{
		FieldHospitalName: StringValue(r.Name),
		FieldAddress:      StringValue(r.Address),
		FieldCity:         StringValue(r.City),
		FieldLat:          NumberValue(r.Latitude),
		FieldLon:          NumberValue(r.Longitude),
		FieldSpecialties:  ListValue(r.Specialties),
		FieldInsurers:     ListValue(r.Insurers),
		FieldRating:       NumberValue(r.Rating),
		FieldPhone:        StringValue(r.Phone),
		FieldWebsite:      StringValue(r.Website),
	}
}

// Document is the unit of ingestion: synthesized text plus flattened metadata.
// Metadata values are scalars only (string, float64, bool or nil).
type Document struct {
	ID       ID
	Content  string
	Metadata map[string]any
	Vector   []float32 // populated by the index on write
}

// ScoredDocument is a document matched by similarity search.
type ScoredDocument struct {
	Document *Document
	Score    float32
}

// SearchResult is the projection of a matched document returned to callers.
type SearchResult struct {
	ID           ID      `json:"id,string"`
	HospitalName string  `json:"hospital_name"`
	City         string  `json:"city"`
	Address      string  `json:"address"`
	Rating       float64 `json:"rating"`
	Phone        string  `json:"phone"`
	Website      string  `json:"website"`
	Snippet      string  `json:"snippet"`
	Score        float32 `json:"score"`
}
