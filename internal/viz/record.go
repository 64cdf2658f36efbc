package viz

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
)

// Cell size of one braille character in recorded frames.
const (
	cellW = 8
	cellH = 16
)

// Recorder rasterizes canvas snapshots into GIF frames.
type Recorder struct {
	palette color.Palette
	frames  []*image.Paletted
	delay   int // hundredths of a second
}

// NewRecorder records in the background and ink colors of t, delayCS
// hundredths of a second per frame.
func NewRecorder(t Theme, delayCS int) *Recorder {
	return &Recorder{
		palette: color.Palette{rgba(t.Background), rgba(t.Ink)},
		delay:   max(delayCS, 1),
	}
}

func (r *Recorder) Frames() int { return len(r.frames) }

// Capture appends the current canvas contents as one frame.
func (r *Recorder) Capture(c *Canvas) {
	img := image.NewPaletted(image.Rect(0, 0, c.Width*cellW, c.Height*cellH), r.palette)
	dotW, dotH := cellW/2, cellH/4

	w, h := c.PixelSize()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

// Save encodes the captured frames as a looping GIF.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return errors.New("no frames captured")
	}

	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.delay)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create gif: %w", err)
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode gif: %w", err)
	}
	return f.Close()
}
