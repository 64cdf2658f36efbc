package viz

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/san-kum/cartsim/internal/physics"
)

// camera pans horizontally after the cart through a critically damped
// spring, so fast carts do not jerk the view.
type camera struct {
	spring harmonica.Spring
	x, v   float64
}

func newCamera(fps int) camera {
	return camera{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

func (c *camera) follow(target float64) float64 {
	c.x, c.v = c.spring.Update(c.x, c.v, target)
	return c.x
}

// jump moves the camera without easing, used after scrubbing.
func (c *camera) jump(target float64) {
	c.x, c.v = target, 0
}

// projection maps world coordinates onto canvas dots.
type projection struct {
	scale   float64 // dots per length unit
	originX float64 // world x of dot column 0
	topY    float64 // world y of dot row 0
}

// newProjection fits the viewport height into h dots. When the viewport is
// wider than the canvas can show, the visible window is centered on center
// and kept inside the viewport.
func newProjection(view physics.Bounds, center float64, w, h int) projection {
	scale := float64(h) / view.Height()
	visible := float64(w) / scale

	mid := (view.MinX + view.MaxX) / 2
	if visible < view.Width() {
		mid = math.Max(view.MinX+visible/2, math.Min(center, view.MaxX-visible/2))
	}
	return projection{scale: scale, originX: mid - visible/2, topY: view.MaxY}
}

func (p projection) dot(pt physics.Point) (int, int) {
	return int(math.Round((pt.X - p.originX) * p.scale)), int(math.Round((p.topY - pt.Y) * p.scale))
}
