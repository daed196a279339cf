package tier

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var pricePattern = regexp.MustCompile(`\d{1,3}(?:[.,]\d{1,2})?`)

// ParsePrice extracts the first price-looking number from text. A comma is
// read as the decimal separator, so "12,50 €" yields 12.5.
func ParsePrice(text string) (float64, bool) {
	m := pricePattern.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CleanText trims s and collapses whitespace runs to a single space.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FormatPrice renders v in euros using the shortest exact decimal form:
// 10 becomes "10€" and 7.5 becomes "7.5€".
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "€"
}

// FormatPriceES renders v the way Spanish ticket shops print it: whole
// amounts without decimals ("12€"), the rest with two and a decimal comma
// ("12,50€").
func FormatPriceES(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64) + "€"
	}
	return strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1) + "€"
}

// blockElements break text runs the way a browser's innerText does.
var blockElements = map[string]bool{
	"address": true, "article": true, "br": true, "button": true, "dd": true,
	"div": true, "dl": true, "dt": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "li": true, "ol": true, "p": true, "section": true,
	"table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// VisibleText approximates the rendered text of a selection: text nodes in
// document order, block boundaries turned into spaces, whitespace collapsed.
func VisibleText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "template", "noscript":
				return
			}
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte(' ')
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return CleanText(b.String())
}
