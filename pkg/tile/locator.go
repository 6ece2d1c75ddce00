package tile

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/kiesman99/panostitch/pkg/errors"
)

// Locator maps a tile of a panorama to the URL it is served from.
// Implementations must return distinct URLs for distinct (zoom, x, y).
type Locator interface {
	Locate(panoID string, zoom, x, y int) string
}

// Template is a URL template with {panoid}, {z}, {x} and {y} placeholders.
// An optional {s} placeholder expands to a subdomain letter a-c.
type Template string

// DefaultTemplate serves Street View panorama tiles.
const DefaultTemplate Template = "https://cbk0.google.com/cbk?output=tile&panoid={panoid}&zoom={z}&x={x}&y={y}"

var requiredPlaceholders = []string{"{panoid}", "{z}", "{x}", "{y}"}

// Validate checks that t has every placeholder needed to keep locators
// distinct per tile.
func (t Template) Validate() error {
	s := string(t)
	if s == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "tile URL template is empty")
	}
	for _, p := range requiredPlaceholders {
		if !strings.Contains(s, p) {
			return errors.New(errors.ErrCodeInvalidParameter, "tile URL template must contain %s", p)
		}
	}
	return nil
}

// Locate replaces the template tokens.
func (t Template) Locate(panoID string, zoom, x, y int) string {
	r := strings.NewReplacer(
		"{panoid}", url.QueryEscape(panoID),
		"{z}", strconv.Itoa(zoom),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
		"{s}", string(rune('a'+(x+y)%3)),
	)
	return r.Replace(string(t))
}
