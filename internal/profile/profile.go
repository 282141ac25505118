package profile

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"grid_simulator/internal/model"
)

// Hourly is a daily shape, one value per hour [0-23], expressed as a
// fraction of a reference capacity.
type Hourly [model.HoursPerDay]float64

// Sample is one observed value at an hour of day.
type Sample struct {
	Hour  int
	Value float64
}

// FromSlice copies a 24-value slice into an Hourly profile.
func FromSlice(values []float64) (Hourly, error) {
	var h Hourly
	if len(values) != model.HoursPerDay {
		return h, fmt.Errorf("profile has %d values, want %d", len(values), model.HoursPerDay)
	}
	copy(h[:], values)
	return h, nil
}

// Flat returns a profile with the same value every hour.
func Flat(v float64) Hourly {
	var h Hourly
	for i := range h {
		h[i] = v
	}
	return h
}

// At returns the value at an hour, wrapping around the day in both directions.
func (h Hourly) At(hour int) float64 {
	return h[wrap(hour)]
}

// Interpolate returns a linearly interpolated value for a fractional hour.
func (h Hourly) Interpolate(hour float64) float64 {
	hour = math.Mod(hour, model.HoursPerDay)
	if hour < 0 {
		hour += model.HoursPerDay
	}
	lo := int(math.Floor(hour))
	frac := hour - float64(lo)
	return h.At(lo)*(1-frac) + h.At(lo+1)*frac
}

// Window returns n consecutive values starting at hour start, wrapping past
// midnight.
func (h Hourly) Window(start, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = h.At(start + i)
	}
	return out
}

// Peak returns the hour and value of the maximum. Ties go to the earliest hour.
func (h Hourly) Peak() (hour int, value float64) {
	hour = floats.MaxIdx(h[:])
	return hour, h[hour]
}

// Scale returns a copy with every value multiplied by f.
func (h Hourly) Scale(f float64) Hourly {
	out := h
	floats.Scale(f, out[:])
	return out
}

// Slice returns the values as a plain slice.
func (h Hourly) Slice() []float64 {
	out := make([]float64, len(h))
	copy(out, h[:])
	return out
}

// BuildFromSamples averages samples per hour and divides by reference. With
// a non-positive reference the profile is normalized so its peak is 1.0.
// Hours with no samples are reported in missing.
func BuildFromSamples(samples []Sample, reference float64) (h Hourly, missing []int) {
	var sum [model.HoursPerDay]float64
	var count [model.HoursPerDay]int

	for _, s := range samples {
		i := wrap(s.Hour)
		sum[i] += s.Value
		count[i]++
	}

	for i := range h {
		if count[i] == 0 {
			missing = append(missing, i)
			continue
		}
		h[i] = sum[i] / float64(count[i])
	}

	if reference <= 0 {
		_, reference = h.Peak()
	}
	if reference > 0 {
		h = h.Scale(1 / reference)
	}
	return h, missing
}

func wrap(hour int) int {
	hour %= model.HoursPerDay
	if hour < 0 {
		hour += model.HoursPerDay
	}
	return hour
}
