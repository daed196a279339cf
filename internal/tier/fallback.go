package tier

import (
	"github.com/PuerkitoBio/goquery"
)

const (
	blockSelector     = `[id="tarifa-name-button-block"]`
	blockNameSelector = `[id="tarifa-name"]`
	singlePriceSel    = `[id="price-just-one-opcion"] .text-primary`
	buttonPriceSel    = `div.font-semibold.text-lg.text-primary`
)

// ExtractBlocks reads tiers straight from the DOM, for pages without a
// pricing object. Each tier block holds a name, a price and sits inside the
// element whose handler emits its ticket, so no matching is needed. Blocks
// yielding no name, price or URL are skipped.
func (m Matcher) ExtractBlocks(doc *goquery.Document) []Record {
	var out []Record
	doc.Find(blockSelector).Each(func(_ int, block *goquery.Selection) {
		r := Record{Name: VisibleText(block.Find(blockNameSelector).First())}

		r.Price = VisibleText(block.Parent().Find(singlePriceSel).First())
		if r.Price == "" {
			r.Price = VisibleText(block.Closest("div").Find(buttonPriceSel).First())
		}

		if action := block.Closest(candidateFilter); action.Length() > 0 {
			payload, _ := action.Attr("onclick")
			r.URL, _ = m.PurchaseURL(payload)
		}

		if r.Name == "" && r.Price == "" && r.URL == "" {
			return
		}
		out = append(out, r)
	})
	return out
}
