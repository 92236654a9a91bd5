package annotate

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/owlbox/owlcap/pkg/logger"
)

// systemFont is the well-known bold face shipped on Raspberry Pi OS.
const systemFont = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"

const jpegQuality = 85

// Stamper draws the timestamp bottom-right on a black box, light text
// on top, then re-encodes the file in place.
type Stamper struct {
	fontPath string
	rotate   int
}

// NewStamper returns a Stamper with the given options.
func NewStamper(opts Options) *Stamper {
	return &Stamper{fontPath: opts.FontPath, rotate: opts.Rotate}
}

// Stamp rotates the image if configured, overlays text at the
// bottom-right corner and writes the result back to path.
func (s *Stamper) Stamp(path, text string) error {
	src, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image %s: %w", path, err)
	}

	switch s.rotate {
	case 0:
		// no rotation
	case 90:
		src = imaging.Rotate90(src)
	case 180:
		src = imaging.Rotate180(src)
	case 270:
		src = imaging.Rotate270(src)
	default:
		return fmt.Errorf("invalid rotation %d: use 90, 180 or 270", s.rotate)
	}

	img := imaging.Clone(src)
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()

	fontSize := width / 40
	if fontSize < 14 {
		fontSize = 14
	}
	face := s.loadFace(float64(fontSize))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
	}

	textW := drawer.MeasureString(text).Ceil()
	metrics := face.Metrics()
	textH := (metrics.Ascent + metrics.Descent).Ceil()

	margin := width / 200
	if margin < 8 {
		margin = 8
	}
	pad := margin / 2
	if pad < 4 {
		pad = 4
	}

	x := width - textW - margin
	y := height - textH - margin

	rect := image.Rect(x-pad, y-pad, x+textW+pad, y+textH+pad)
	draw.Draw(img, rect.Intersect(img.Bounds()), image.Black, image.Point{}, draw.Src)

	drawer.Dot = fixed.P(x, y+metrics.Ascent.Ceil())
	drawer.DrawString(text)

	if err := imaging.Save(img, path, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("failed to save annotated image %s: %w", path, err)
	}
	return nil
}

// loadFace resolves the overlay font: caller-supplied TTF, then the
// system DejaVu bold, then the built-in bitmap face. The last step
// cannot fail, so a missing font never aborts a capture.
func (s *Stamper) loadFace(size float64) font.Face {
	for _, path := range []string{s.fontPath, systemFont} {
		if path == "" {
			continue
		}
		face, err := loadTrueType(path, size)
		if err != nil {
			logger.Debug("Font not usable, trying next", "font", path, "error", err)
			continue
		}
		return face
	}
	return basicfont.Face7x13
}

func loadTrueType(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
