package captcha

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/png"
)

// cropMargin is the padding, in pixels, added around the widget bounds
// when cropping the screenshot. It gives the solving service workers a
// little visual context around the puzzle.
const cropMargin = 10

// Bounds is the captcha widget's bounding box in page coordinates.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Layout holds the positions of the widget's sub-elements, probed fresh
// from the live page. All values are page coordinates in CSS pixels.
type Layout struct {
	SliderX float64 `json:"slider_x"`
	SliderY float64 `json:"slider_y"` // vertical center of the handle
	SliderW float64 `json:"slider_w"`
	ImgX    float64 `json:"img_x"`
	ImgY    float64 `json:"img_y"`
	ImgW    float64 `json:"img_w"`
	PieceW  float64 `json:"piece_w"`
	TrackW  float64 `json:"track_w"`
	TrackX  float64 `json:"track_x"`
}

// track returns the effective slider track width. Some widget layouts
// report a track narrower than the background image; when that happens
// the image is the more trustworthy measure, so substitute it.
func (l Layout) track() float64 {
	if l.TrackW < l.ImgW {
		return l.ImgW
	}
	return l.TrackW
}

// CropRegion records where a cropped screenshot sits within the full
// page, so a coordinate in crop space can be mapped back.
type CropRegion struct {
	Left int
	Top  int
}

// PageX maps an x-coordinate in cropped-image space back to page space.
func (r CropRegion) PageX(cropX float64) float64 {
	return cropX + float64(r.Left)
}

// CropScreenshot crops a full-page PNG screenshot down to the widget
// bounds plus margin, clamped to the image on all sides. It returns the
// cropped image base64-encoded (ready for submission) along with the
// crop offset needed to map returned coordinates back to page space.
func CropScreenshot(screenshot []byte, b Bounds) (string, CropRegion, error) {
	img, err := png.Decode(bytes.NewReader(screenshot))
	if err != nil {
		return "", CropRegion{}, fmt.Errorf("decode screenshot: %w", err)
	}

	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	left := clamp(int(b.X)-cropMargin, 0, w)
	top := clamp(int(b.Y)-cropMargin, 0, h)
	right := clamp(int(b.X+b.Width)+cropMargin, 0, w)
	bottom := clamp(int(b.Y+b.Height)+cropMargin, 0, h)

	if right <= left || bottom <= top {
		return "", CropRegion{}, fmt.Errorf("widget bounds %v outside screenshot %dx%d", b, w, h)
	}

	cropped := image.NewRGBA(image.Rect(0, 0, right-left, bottom-top))
	draw.Draw(cropped, cropped.Bounds(), img, image.Pt(left, top), draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return "", CropRegion{}, fmt.Errorf("encode crop: %w", err)
	}

	b64 := base64.StdEncoding.EncodeToString(buf.Bytes())
	return b64, CropRegion{Left: left, Top: top}, nil
}

// DragDistance computes how far the slider handle must travel so the
// puzzle piece lands on the target. pageX is the center of the
// destination slot in page space. The result is clamped to the physical
// travel of the handle, [0, trackWidth - sliderWidth].
func DragDistance(pageX float64, l Layout) float64 {
	slotCenter := pageX - l.ImgX
	distance := slotCenter - l.PieceW/2

	maxDrag := l.track() - l.SliderW
	if maxDrag < 0 {
		maxDrag = 0
	}
	if distance < 0 {
		return 0
	}
	if distance > maxDrag {
		return maxDrag
	}
	return distance
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
