// Package analysis provides post-hoc analysis of simulated trajectories:
// frequency content of oscillating species and parameter sweeps over the
// fluid limit.
package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform of a real signal by
// radix-2 recursion. The length must be a power of two; Resample
// produces suitable input from a raw trajectory.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		out := make([]complex128, n)
		for i, v := range data {
			out[i] = complex(v, 0)
		}
		return out
	}
	if n%2 != 0 {
		panic("analysis: FFT length must be a power of two")
	}

	half := n / 2
	even := make([]float64, half)
	odd := make([]float64, half)
	for i := 0; i < half; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	fe := FFT(even)
	fo := FFT(odd)

	out := make([]complex128, n)
	for k := 0; k < half; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		out[k] = fe[k] + w*fo[k]
		out[k+half] = fe[k] - w*fo[k]
	}
	return out
}

// PowerSpectrum returns the magnitude of each frequency bin up to the
// Nyquist limit.
func PowerSpectrum(data []float64) []float64 {
	spec := FFT(data)
	ps := make([]float64, len(spec)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// Resample interpolates an event-time series onto n uniform samples.
// Stochastic trajectories are recorded at exponential waiting times, so
// they must be regularized before a spectrum makes sense. n is rounded
// up to the next power of two.
func Resample(times, values []float64, n int) []float64 {
	if len(times) == 0 || len(times) != len(values) {
		return nil
	}

	size := 1
	for size < n {
		size *= 2
	}

	out := make([]float64, size)
	t0, t1 := times[0], times[len(times)-1]
	if t1 == t0 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}

	j := 0
	for i := 0; i < size; i++ {
		t := t0 + (t1-t0)*float64(i)/float64(size-1)
		for j < len(times)-2 && times[j+1] < t {
			j++
		}
		span := times[j+1] - times[j]
		if span == 0 {
			out[i] = values[j]
			continue
		}
		frac := (t - times[j]) / span
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		out[i] = values[j] + frac*(values[j+1]-values[j])
	}
	return out
}

// DominantFrequency returns the strongest nonzero frequency of a power
// spectrum sampled over a signal of the given duration, in cycles per
// unit time. Returns 0 when the spectrum is flat.
func DominantFrequency(ps []float64, duration float64) float64 {
	maxPower := 0.0
	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > maxPower {
			maxPower = ps[i]
			maxIdx = i
		}
	}
	if maxIdx == 0 || duration == 0 {
		return 0
	}
	return float64(maxIdx) / duration
}
