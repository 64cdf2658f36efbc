package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/cartsim/internal/dynamo"
)

// Spectrum is the one-sided amplitude spectrum of a sampled channel.
type Spectrum struct {
	Freqs     []float64 // Hz
	Amplitude []float64
}

// uniformStep returns the sample spacing, or an error when the times are
// not evenly spaced to within a relative 1e-6.
func uniformStep(times []float64) (float64, error) {
	if len(times) < 4 {
		return 0, fmt.Errorf("need at least 4 samples, got %d", len(times))
	}
	dt := (times[len(times)-1] - times[0]) / float64(len(times)-1)
	if dt <= 0 {
		return 0, errors.New("samples do not advance in time")
	}
	for i := 1; i < len(times); i++ {
		if math.Abs(times[i]-times[i-1]-dt) > 1e-6*dt {
			return 0, fmt.Errorf("samples are not evenly spaced at index %d", i)
		}
	}
	return dt, nil
}

// ChannelSpectrum transforms channel i of traj. The mean is removed first
// so the DC bin does not swamp the oscillation.
func ChannelSpectrum(traj *dynamo.Trajectory, channel int) (Spectrum, error) {
	if channel < 0 || channel >= 2*traj.Dof {
		return Spectrum{}, fmt.Errorf("%w: channel %d for dof %d", dynamo.ErrDimensionMismatch, channel, traj.Dof)
	}
	dt, err := uniformStep(traj.Times)
	if err != nil {
		return Spectrum{}, err
	}

	data := traj.Channel(channel)
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))
	for i := range data {
		data[i] -= mean
	}

	n := len(data)
	coeffs := fft.FFTReal(data)
	half := n/2 + 1

	s := Spectrum{Freqs: make([]float64, half), Amplitude: make([]float64, half)}
	for i := 0; i < half; i++ {
		s.Freqs[i] = float64(i) / (float64(n) * dt)
		s.Amplitude[i] = 2 * cmplx.Abs(coeffs[i]) / float64(n)
	}
	s.Amplitude[0] /= 2
	return s, nil
}

// Dominant returns the frequency of the largest non-DC bin and its
// amplitude. A flat spectrum yields zero frequency.
func (s Spectrum) Dominant() (freq, amplitude float64) {
	for i := 1; i < len(s.Amplitude); i++ {
		if s.Amplitude[i] > amplitude {
			freq, amplitude = s.Freqs[i], s.Amplitude[i]
		}
	}
	return freq, amplitude
}

// Band returns the bins with frequency at most fmax, for plotting.
func (s Spectrum) Band(fmax float64) Spectrum {
	n := len(s.Freqs)
	for n > 1 && s.Freqs[n-1] > fmax {
		n--
	}
	return Spectrum{Freqs: s.Freqs[:n], Amplitude: s.Amplitude[:n]}
}
