package tier

// Synthesize turns a pricing object into one Record per purchasable option,
// in source order. URLs are left empty for the Matcher.
//
// A group whose options carry names is a set of distinct products: each
// named option becomes a Record and unnamed siblings are dropped. A group
// whose options are all unnamed is one product with price steps: it becomes
// a single Record named after the group and priced from its active option.
func Synthesize(src *PricingSource) []Record {
	if src == nil {
		return nil
	}
	out := make([]Record, 0, len(src.Groups))
	for _, g := range src.Groups {
		out = append(out, synthesizeGroup(g)...)
	}
	return out
}

func synthesizeGroup(g Group) []Record {
	if g.AnyNamed() {
		var out []Record
		for _, o := range g.Options {
			if !o.Named() {
				continue
			}
			out = append(out, priced(CleanText(string(o.Name)), o.Price, string(g.FallbackPrice)))
		}
		return out
	}

	amount := g.Price
	if o := g.Chosen(); o != nil && o.Price.Valid {
		amount = o.Price
	}
	return []Record{priced(CleanText(string(g.Name)), amount, string(g.FallbackPrice))}
}

func priced(name string, amount Amount, fallback string) Record {
	r := Record{Name: name, amount: amount.Ptr()}
	if amount.Valid {
		r.Price = FormatPrice(amount.Value)
	} else {
		r.Price = CleanText(fallback)
	}
	return r
}
