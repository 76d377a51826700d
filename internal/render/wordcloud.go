package render

import (
	"fmt"
	"image/color"
	"image/png"
	"os"

	"github.com/psykhi/wordclouds"
)

// WordCloud renders a word cloud PNG from token frequencies. FontFile must
// point at a TrueType font that covers the tokens' script.
type WordCloud struct {
	FontFile string
	Width    int
	Height   int
}

// NewWordCloud creates a word cloud renderer using the given font file.
func NewWordCloud(fontFile string) *WordCloud {
	return &WordCloud{FontFile: fontFile, Width: 2048, Height: 1024}
}

var cloudColors = []color.Color{
	color.RGBA{0x1f, 0x77, 0xb4, 0xff},
	color.RGBA{0xff, 0x7f, 0x0e, 0xff},
	color.RGBA{0x2c, 0xa0, 0x2c, 0xff},
	color.RGBA{0xd6, 0x27, 0x28, 0xff},
	color.RGBA{0x94, 0x67, 0xbd, 0xff},
}

// Render lays out freqs as a word cloud and writes a PNG to path. When
// maskPath is non-empty the named image constrains the layout region.
func (w *WordCloud) Render(path string, freqs map[string]int, maskPath string) error {
	if len(freqs) == 0 {
		return fmt.Errorf("word cloud %s: no tokens", path)
	}

	opts := []wordclouds.Option{
		wordclouds.FontFile(w.FontFile),
		wordclouds.FontMaxSize(200),
		wordclouds.FontMinSize(10),
		wordclouds.Width(w.Width),
		wordclouds.Height(w.Height),
		wordclouds.Colors(cloudColors),
		wordclouds.BackgroundColor(color.White),
	}
	if maskPath != "" {
		boxes := wordclouds.Mask(maskPath, w.Width, w.Height, color.RGBA{A: 0xff})
		opts = append(opts, wordclouds.MaskBoxes(boxes))
	}

	cloud := wordclouds.NewWordcloud(freqs, opts...)
	img := cloud.Draw()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("word cloud %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("word cloud %s: %w", path, err)
	}
	return f.Close()
}
