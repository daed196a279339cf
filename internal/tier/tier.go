package tier

import (
	"encoding/json"
	"strings"
)

// Record is one purchasable ticket tier. Empty Price or URL means the
// value could not be determined and is serialized as null.
type Record struct {
	Name  string
	Price string
	URL   string

	// amount is the numeric price the record was synthesized from, if any.
	amount *float64
}

// Amount returns the numeric price the record was built from.
func (r Record) Amount() (float64, bool) {
	if r.amount == nil {
		return 0, false
	}
	return *r.amount, true
}

type recordJSON struct {
	ReleaseName string  `json:"releaseName"`
	Price       *string `json:"price"`
	ReleaseURL  *string `json:"releaseUrl"`
}

// MarshalJSON writes the record as {releaseName, price, releaseUrl}.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ReleaseName: r.Name,
		Price:       nullable(r.Price),
		ReleaseURL:  nullable(r.URL),
	})
}

// UnmarshalJSON reads the format written by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Record{Name: w.ReleaseName}
	if w.Price != nil {
		r.Price = *w.Price
	}
	if w.ReleaseURL != nil {
		r.URL = *w.ReleaseURL
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PricingSource is the embedded pricing object of an event page.
type PricingSource struct {
	Groups groupList `json:"entradas"`
}

// Group is a named ticket category with its pricing options.
type Group struct {
	Name          Text       `json:"nombre"`
	Price         Amount     `json:"precio"`
	FallbackPrice Text       `json:"precioStr"`
	Options       optionList `json:"opciones"`
}

// Option is a single pricing step or variant of a Group.
type Option struct {
	Name   Text   `json:"name"`
	Price  Amount `json:"precio"`
	Active Flag   `json:"actual"`
}

// Named reports whether the option carries a non-blank name.
func (o Option) Named() bool {
	return strings.TrimSpace(string(o.Name)) != ""
}

// AnyNamed reports whether at least one option of the group is named.
func (g Group) AnyNamed() bool {
	for _, o := range g.Options {
		if o.Named() {
			return true
		}
	}
	return false
}

// Chosen returns the first active option, else the first option, else nil.
func (g Group) Chosen() *Option {
	for i := range g.Options {
		if g.Options[i].Active {
			return &g.Options[i]
		}
	}
	if len(g.Options) > 0 {
		return &g.Options[0]
	}
	return nil
}

// Candidate is a clickable element whose handler emits a ticket.
type Candidate struct {
	Payload string
	Text    string
}
