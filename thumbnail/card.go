package thumbnail

import (
	"bytes"
	"hash/fnv"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
)

var (
	navyTop    = color.RGBA{R: 8, G: 18, B: 48, A: 255}
	navyBottom = color.RGBA{R: 22, G: 48, B: 104, A: 255}
	gold       = color.RGBA{R: 255, G: 200, B: 40, A: 255}
)

// RenderCard draws the offline thumbnail: a dark blue gradient with gold
// accent bars and a stripe whose colour is derived from the keywords.
func RenderCard(width, height, quality int, keywords []string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		c := lerp(navyTop, navyBottom, float64(y)/float64(max(height-1, 1)))
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	bar := max(height/48, 4)
	fill(img, image.Rect(0, 0, width, bar), gold)
	fill(img, image.Rect(0, height-bar, width, height), gold)

	stripe := KeywordColor(keywords)
	fill(img, image.Rect(width/16, height/4, width/16+max(width/40, 6), height*3/4), stripe)
	fill(img, image.Rect(width/16, height*3/4+bar, width*7/16, height*3/4+2*bar), stripe)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// KeywordColor maps a keyword set to a stable saturated colour.
func KeywordColor(keywords []string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.Join(keywords, ","))))
	sum := h.Sum32()
	hue := float64(sum%360) / 60
	x := uint8(255 * (1 - abs(mod2(hue)-1)))
	switch int(hue) {
	case 0:
		return color.RGBA{255, x, 0, 255}
	case 1:
		return color.RGBA{x, 255, 0, 255}
	case 2:
		return color.RGBA{0, 255, x, 255}
	case 3:
		return color.RGBA{0, x, 255, 255}
	case 4:
		return color.RGBA{x, 0, 255, 255}
	default:
		return color.RGBA{255, 0, x, 255}
	}
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}

func mod2(f float64) float64 {
	for f >= 2 {
		f -= 2
	}
	return f
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
