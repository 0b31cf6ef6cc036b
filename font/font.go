package font

import (
	"math"
	"sync"

	"github.com/adrg/sysfont"
	"github.com/fogleman/gg"
	fnt "golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

var (
	FONT_CACHE = map[FontKey]FontItem{}
	cacheLock  sync.Mutex
)

type FontKey struct {
	Size  float64
	Query string
}

type FontItem struct {
	Font  fnt.Face
	Label string
}

// GetFont finds a system font matching query. Hosts without a usable font
// file get the built-in 7x13 bitmap face, which ignores size.
func GetFont(size float64, query string) FontItem {
	cacheLock.Lock()
	defer cacheLock.Unlock()

	key := FontKey{Size: size, Query: query}
	if item, exists := FONT_CACHE[key]; exists {
		return item
	}

	item := FontItem{Font: basicfont.Face7x13, Label: "basicfont 7x13"}
	if match := sysfont.NewFinder(nil).Match(query); match != nil && match.Filename != "" {
		if face, err := gg.LoadFontFace(match.Filename, size); err == nil {
			item = FontItem{Font: face, Label: match.Name}
		}
	}
	FONT_CACHE[key] = item
	return item
}

func Measure(font fnt.Face, text string) float64 {
	return math.Ceil(float64(fnt.MeasureString(font, text)) / 64.0)
}

func Linespace(font fnt.Face) float64 {
	// note: without the scaling factor, the lines are too narrow
	return math.Ceil(float64(font.Metrics().Height) / 64.0 * 96 / 72)
}
