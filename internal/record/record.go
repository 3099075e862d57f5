package record

import "time"

// Canonical field names shared by sources, validation rules and storage.
const (
	FieldURL         = "url"
	FieldPrice       = "price"
	FieldAddress     = "address"
	FieldDescription = "description"
	FieldContact     = "contact"
	FieldSource      = "source"
)

// Raw is an untrusted scraped record. No invariants are guaranteed: fields
// may be missing, empty, or garbage until the validation stage has run.
type Raw map[string]string

func (r Raw) URL() string { return r[FieldURL] }

// Clone returns an independent copy so validation can normalize fields
// without mutating the caller's map.
func (r Raw) Clone() Raw {
	out := make(Raw, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Validated is a record that passed the validation stage: price is numeric
// and in range, text fields are whitespace-normalized, required fields are
// present and non-empty.
type Validated struct {
	URL         string  `json:"url"`
	Price       float64 `json:"price"`
	Address     string  `json:"address"`
	Description string  `json:"description"`
	Contact     string  `json:"contact"`
	Source      string  `json:"source"`

	// Extra carries normalized free-text fields outside the canonical set.
	Extra map[string]string `json:"extra,omitempty"`

	ValidatedAt time.Time `json:"validated_at"`
}

// Stored is a validated record plus storage metadata. At most one Stored
// exists per URL; UpdatedAt is monotonically non-decreasing across writes
// for that key.
type Stored struct {
	Validated

	SpiderName string    `json:"spider_name"`
	UpdatedAt  time.Time `json:"updated_at"`
}
