package tier

// CurrentFromSource names the tier a pricing object marks as on sale. Groups
// are visited in order; a group with named options yields the name of its
// first active named option, a group without named options yields its own
// name. The first non-empty result wins.
func CurrentFromSource(src *PricingSource) string {
	if src == nil {
		return ""
	}
	for _, g := range src.Groups {
		if g.AnyNamed() {
			for _, o := range g.Options {
				if bool(o.Active) && o.Named() {
					return CleanText(string(o.Name))
				}
			}
			continue
		}
		if g.Chosen() == nil {
			continue
		}
		if name := CleanText(string(g.Name)); name != "" {
			return name
		}
	}
	return ""
}

// CurrentFromRecords picks the first record with a purchase URL, else the
// first record, and returns its name.
func CurrentFromRecords(records []Record) string {
	for _, r := range records {
		if r.URL != "" {
			return r.Name
		}
	}
	if len(records) > 0 {
		return records[0].Name
	}
	return ""
}
