// Package vision classifies screenshots against a small fixed set of known
// failure screens by approximate template matching. Pure functions over
// decoded images so tests never need a live screen.
package vision

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/KoganTheDev/whatsapp-message-automation/internal/config"
)

// State is the classification result for one screenshot.
type State int

const (
	Normal State = iota
	PhoneNotFound
	PageNotFound
)

func (s State) String() string {
	switch s {
	case PhoneNotFound:
		return "phone-not-found"
	case PageNotFound:
		return "page-not-found"
	default:
		return "normal"
	}
}

// reference is one known failure screen with its match threshold.
type reference struct {
	state     State
	img       image.Image
	threshold float64
}

// Classifier matches screenshots against the loaded references. Stateless
// after construction.
type Classifier struct {
	refs []reference
}

// LoadClassifier reads the reference images named in cfg. References are
// checked in declaration order: phone-not-found before page-not-found, so
// when both would match, phone-not-found wins.
func LoadClassifier(cfg config.Detection) (*Classifier, error) {
	c := &Classifier{}

	for _, name := range cfg.PhoneNotFound {
		img, err := loadImage(filepath.Join(cfg.ReferenceDir, name))
		if err != nil {
			return nil, err
		}
		c.refs = append(c.refs, reference{PhoneNotFound, img, cfg.PhoneThreshold})
	}

	img, err := loadImage(filepath.Join(cfg.ReferenceDir, cfg.PageNotFound))
	if err != nil {
		return nil, err
	}
	c.refs = append(c.refs, reference{PageNotFound, img, cfg.PageThreshold})

	return c, nil
}

// NewClassifier builds a classifier from already-decoded references, in the
// order they should be checked. Used by tests and callers that manage their
// own assets.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// AddReference appends a reference screen. Earlier references win ties.
func (c *Classifier) AddReference(state State, img image.Image, threshold float64) {
	c.refs = append(c.refs, reference{state, img, threshold})
}

// Classify returns the state of the first reference whose best match inside
// the screenshot meets its threshold, or Normal when none does.
func (c *Classifier) Classify(screenshot image.Image) State {
	for _, ref := range c.refs {
		if Match(screenshot, ref.img) >= ref.threshold {
			return ref.state
		}
	}
	return Normal
}

// sampleStep controls how many pixels of the reference are compared at each
// candidate position. Sampling keeps the scan cheap without materially
// changing the score for the near-identical screens we look for.
const sampleStep = 4

// Match returns the best similarity of ref within img, in [0, 1], where 1
// means a sampled-pixel-perfect occurrence of ref somewhere in img.
func Match(img, ref image.Image) float64 {
	ib, rb := img.Bounds(), ref.Bounds()
	if rb.Dx() > ib.Dx() || rb.Dy() > ib.Dy() || rb.Empty() {
		return 0
	}

	// Offsets are scanned on a coarse grid; the screens being detected are
	// full-window states, not pixel-precise sprites.
	stride := rb.Dx() / 8
	if stride < 1 {
		stride = 1
	}

	best := 0.0
	for dy := 0; dy <= ib.Dy()-rb.Dy(); dy += stride {
		for dx := 0; dx <= ib.Dx()-rb.Dx(); dx += stride {
			if s := similarityAt(img, ref, dx, dy); s > best {
				best = s
			}
		}
	}
	return best
}

// similarityAt scores ref placed at offset (dx, dy) inside img: one minus
// the normalized mean absolute channel difference over sampled pixels.
func similarityAt(img, ref image.Image, dx, dy int) float64 {
	ib, rb := img.Bounds(), ref.Bounds()

	var total, count float64
	for y := rb.Min.Y; y < rb.Max.Y; y += sampleStep {
		for x := rb.Min.X; x < rb.Max.X; x += sampleStep {
			r1, g1, b1, _ := ref.At(x, y).RGBA()
			r2, g2, b2, _ := img.At(ib.Min.X+dx+(x-rb.Min.X), ib.Min.Y+dy+(y-rb.Min.Y)).RGBA()
			total += absDiff(r1, r2) + absDiff(g1, g2) + absDiff(b1, b2)
			count += 3
		}
	}
	if count == 0 {
		return 0
	}
	return 1 - (total/count)/65535.0
}

func absDiff(a, b uint32) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode reference image %s: %w", path, err)
	}
	return img, nil
}
