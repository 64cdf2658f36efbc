package integrators

import (
	"math"

	"github.com/san-kum/cartsim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// errorExponent is -1/(q+1) for the embedded 4th order estimate.
const errorExponent = -1.0 / 5.0

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
	evals    int
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Step takes one unchecked fifth-order step of size dt.
func (r *RK45) Step(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	k1, err := r.derive(dyn, x, t)
	if err != nil {
		return nil, err
	}
	res, err := r.attempt(dyn, x, k1, t, dt)
	if err != nil {
		return nil, err
	}
	return res.x, nil
}

type stepResult struct {
	x   dynamo.State // fifth-order solution
	k7  dynamo.State // derivative at (t+dt, x), reused as the next k1
	err dynamo.State // fifth minus fourth order difference
}

func (r *RK45) derive(dyn dynamo.System, x dynamo.State, t float64) (dynamo.State, error) {
	r.evals++
	dx, err := dyn.Derive(x, t)
	if err != nil {
		return nil, err
	}
	if !dx.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	return dx, nil
}

// attempt evaluates the six remaining stages given k1 = f(t, x).
func (r *RK45) attempt(dyn dynamo.System, x, k1 dynamo.State, t, dt float64) (stepResult, error) {
	n := len(x)
	stage := make(dynamo.State, n)

	for i := 0; i < n; i++ {
		stage[i] = x[i] + dt*b21*k1[i]
	}
	k2, err := r.derive(dyn, stage, t+a2*dt)
	if err != nil {
		return stepResult{}, err
	}

	for i := 0; i < n; i++ {
		stage[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3, err := r.derive(dyn, stage, t+a3*dt)
	if err != nil {
		return stepResult{}, err
	}

	for i := 0; i < n; i++ {
		stage[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4, err := r.derive(dyn, stage, t+a4*dt)
	if err != nil {
		return stepResult{}, err
	}

	for i := 0; i < n; i++ {
		stage[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5, err := r.derive(dyn, stage, t+a5*dt)
	if err != nil {
		return stepResult{}, err
	}

	for i := 0; i < n; i++ {
		stage[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6, err := r.derive(dyn, stage, t+dt)
	if err != nil {
		return stepResult{}, err
	}

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}
	if !xNew.IsValid() {
		return stepResult{}, dynamo.ErrInvalidState
	}

	k7, err := r.derive(dyn, xNew, t+dt)
	if err != nil {
		return stepResult{}, err
	}

	errEst := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		errEst[i] = dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
	}

	return stepResult{x: xNew, k7: k7, err: errEst}, nil
}

// errorNorm is the RMS of the error estimate scaled by atol + rtol·max(|x|, |xNew|).
func errorNorm(errEst, x, xNew dynamo.State, rtol, atol float64) float64 {
	sum := 0.0
	for i := range errEst {
		scale := atol + rtol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		v := errEst[i] / scale
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(errEst)))
}

// nextScale returns the step size multiplier after an attempt with the
// given error norm.
func (r *RK45) nextScale(norm float64, accepted, afterReject bool) float64 {
	if !accepted {
		return math.Max(r.minScale, r.safety*math.Pow(norm, errorExponent))
	}
	scale := r.maxScale
	if norm > 0 {
		scale = math.Min(r.maxScale, r.safety*math.Pow(norm, errorExponent))
	}
	if afterReject {
		scale = math.Min(1, scale)
	}
	return scale
}
