package generator

import (
	"fmt"
	"net/url"
	"strings"
)

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="800" height="600">` +
	`<defs><linearGradient id="g" x1="0" x2="1" y1="0" y2="1">` +
	`<stop offset="0%%" stop-color="#0f172a"/><stop offset="100%%" stop-color="#1f2937"/>` +
	`</linearGradient></defs>` +
	`<rect width="100%%" height="100%%" fill="url(#g)"/>` +
	`<text x="50%%" y="50%%" dominant-baseline="middle" text-anchor="middle" fill="#ffffff" font-family="system-ui, sans-serif" font-size="40">%s</text>` +
	`</svg>`

// PlaceholderImage builds an inline SVG data URI labelled with the product name.
func PlaceholderImage(name string) string {
	label := strings.TrimSpace(name)
	if label == "" {
		label = "Product"
	}
	svg := fmt.Sprintf(placeholderSVG, escapeXML(label))
	return "data:image/svg+xml," + url.PathEscape(svg)
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
