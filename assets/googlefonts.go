package assets

import (
	"net/url"
	"strconv"
	"strings"
)

// GoogleFontsURL is the stylesheet endpoint of the Google Fonts API.
const GoogleFontsURL = "https://fonts.googleapis.com/css2"

// GoogleFont selects a stylesheet served by the Google Fonts API. The stylesheet is declared as a remote css file.
type GoogleFont struct {
	// Families are the font family names, such as "Roboto" or "Open Sans".
	Families []string
	// Weights restricts the stylesheet to the listed weights.
	Weights []uint32
	// Text restricts the font files to the glyphs of this text.
	Text string
	// Display is the font-display strategy, such as "swap".
	Display string
}

// URL returns the stylesheet URL. Every family gets its own family parameter, weights are comma separated and spaces
// are encoded as '+'.
func (f GoogleFont) URL() string {
	var segments []string
	for _, family := range f.Families {
		if family = strings.TrimSpace(family); family != "" {
			segments = append(segments, "family="+url.QueryEscape(family))
		}
	}
	if len(f.Weights) > 0 {
		weights := make([]string, len(f.Weights))
		for i, weight := range f.Weights {
			weights[i] = strconv.FormatUint(uint64(weight), 10)
		}
		segments = append(segments, "weight="+strings.Join(weights, ","))
	}
	if f.Text != "" {
		segments = append(segments, "text="+url.QueryEscape(f.Text))
	}
	if f.Display != "" {
		segments = append(segments, "display="+url.QueryEscape(f.Display))
	}

	if len(segments) == 0 {
		return GoogleFontsURL
	}
	return GoogleFontsURL + "?" + strings.Join(segments, "&")
}
