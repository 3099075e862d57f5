package validate

// Rules is the content policy a raw record must satisfy before it is
// persisted. Loaded from the acquisition config file; Compile (via New)
// turns the price patterns into regexps once at startup.
type Rules struct {
	RequiredFields       []string `yaml:"required_fields" validate:"min=1,dive,required"`
	ValidPriceFormats    []string `yaml:"valid_price_formats" validate:"min=1,dive,required"`
	PriceMin             float64  `yaml:"price_min" validate:"gte=0"`
	PriceMax             float64  `yaml:"price_max" validate:"gtefield=PriceMin"`
	MinDescriptionLength int      `yaml:"min_description_length" validate:"gte=0"`
	MaxDescriptionLength int      `yaml:"max_description_length" validate:"gtefield=MinDescriptionLength"`
	ExcludedTerms        []string `yaml:"excluded_terms"`
}

// DefaultRules matches typical residential listing data. Used when the
// config file leaves the validation section out.
func DefaultRules() Rules {
	return Rules{
		RequiredFields:       []string{"url", "price", "address", "description"},
		ValidPriceFormats:    []string{`^\$?[\d,]+(\.\d+)?$`},
		PriceMin:             1_000,
		PriceMax:             100_000_000,
		MinDescriptionLength: 20,
		MaxDescriptionLength: 10_000,
		ExcludedTerms:        []string{"foreclosure", "auction"},
	}
}
