package physics

import (
	"math"

	"github.com/san-kum/cartsim/internal/dynamo"
)

// Drawing dimensions of the cart body, in the same length unit as L.
const (
	CartWidth  = 2.0
	CartHeight = 1.0
)

// Point is a position in the vertical plane, y pointing up.
type Point struct {
	X, Y float64
}

// Pose is the drawable configuration of one state. The cart body spans
// [Pivot.X-CartWidth/2, Pivot.X+CartWidth/2] × [0, CartHeight]; the first
// link hangs from Pivot and every entry of Links is the free end of a rod.
type Pose struct {
	Pivot Point
	Links []Point
}

// Pose maps a state onto cart and rod end positions. θ = 0 hangs straight
// down.
func (ps ParameterSet) Pose(x dynamo.State) (Pose, error) {
	if err := checkDim(x, ps.StateDim()); err != nil {
		return Pose{}, err
	}

	pose := Pose{Pivot: Point{X: x[0]}}
	if ps.topology == Cart {
		return pose, nil
	}

	L := ps.pendulum.Length
	at := pose.Pivot
	for i := 2; i < len(x); i += 2 {
		sin, cos := math.Sincos(x[i])
		at = Point{X: at.X + L*sin, Y: at.Y - L*cos}
		pose.Links = append(pose.Links, at)
	}
	return pose, nil
}

// Bounds is an axis-aligned viewport.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Viewport returns a symmetric frame wide enough for every cart position of
// traj plus margin on each side, tall enough for fully extended links.
func (ps ParameterSet) Viewport(traj *dynamo.Trajectory, margin float64) Bounds {
	reach := 0.0
	for _, s := range traj.States {
		if len(s) > 0 {
			reach = math.Max(reach, math.Abs(s[0]))
		}
	}

	links := 0.0
	if q, ok := ps.Pendulum(); ok {
		links = float64(ps.Dof()-1) * q.Length
	}

	half := reach + links + margin + CartWidth/2
	return Bounds{
		MinX: -half,
		MaxX: half,
		MinY: -links - margin,
		MaxY: CartHeight + margin,
	}
}
