package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"grid_simulator/internal/model"
	"grid_simulator/internal/profile"
)

// ProfileParser reads CSV exports with an hour column and one column per
// weather variable:
//
//	hour,demand,solar,wind
//	0,240,0,48
//
// The hour column holds either an hour of day (0-23) or an RFC 3339
// timestamp. Rows may repeat hours; they are averaged when profiles are built.
type ProfileParser struct{}

func NewProfileParser() *ProfileParser {
	return &ProfileParser{}
}

func (p *ProfileParser) Parse(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	hourIdx := -1
	columns := make(map[int]model.Variable)
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "hour", "timestamp":
			hourIdx = i
		default:
			for _, v := range model.Variables {
				if name == string(v) {
					columns[i] = v
				}
			}
		}
	}
	if hourIdx < 0 {
		return nil, fmt.Errorf("missing hour column in header: %v", header)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no demand, solar or wind column in header: %v", header)
	}

	var samples []Sample
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		hour, err := parseHour(record[hourIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		s := Sample{Hour: hour, Values: make(map[model.Variable]float64, len(columns))}
		for i, v := range columns {
			raw := strings.TrimSpace(record[i])
			if raw == "" || raw == "unavailable" || raw == "unknown" {
				continue
			}
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s value %q: %w", line, v, raw, err)
			}
			s.Values[v] = value
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseHour(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if h, err := strconv.Atoi(raw); err == nil {
		if h < 0 || h >= model.HoursPerDay {
			return 0, fmt.Errorf("hour %d out of range", h)
		}
		return h, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return 0, fmt.Errorf("hour %q is neither 0-23 nor RFC 3339", raw)
	}
	return ts.Hour(), nil
}

var ErrIncompleteProfile = errors.New("incomplete profile")

// BuildWeather derives daily profiles from samples. Each variable present in
// the samples replaces the matching base profile. Values are divided by the
// variable's reference (MW); without one the profile is normalized to a peak
// of 1. Volatility is kept from base.
func BuildWeather(samples []Sample, base []model.WeatherSpec, references map[model.Variable]float64) ([]model.WeatherSpec, error) {
	byVar := make(map[model.Variable][]profile.Sample)
	for _, s := range samples {
		for v, value := range s.Values {
			byVar[v] = append(byVar[v], profile.Sample{Hour: s.Hour, Value: value})
		}
	}

	out := make([]model.WeatherSpec, len(base))
	for i, spec := range base {
		out[i] = spec
		vs, ok := byVar[spec.Variable]
		if !ok {
			continue
		}
		h, missing := profile.BuildFromSamples(vs, references[spec.Variable])
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s has no samples for hours %v", ErrIncompleteProfile, spec.Variable, missing)
		}
		out[i].Profile = h.Slice()
	}
	return out, nil
}

// LoadWeatherFile parses a profile CSV and applies it to the scenario's
// weather. Demand is referenced to total base load and renewables to their
// installed capacity.
func LoadWeatherFile(path string, s model.Scenario) ([]model.WeatherSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, err := NewProfileParser().Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return BuildWeather(samples, s.Weather, References(s))
}

// References returns the MW scale of each variable in a scenario.
func References(s model.Scenario) map[model.Variable]float64 {
	refs := make(map[model.Variable]float64)
	for _, c := range s.Consumers {
		refs[model.VariableDemand] += c.BaseLoad
	}
	for _, p := range s.Renewables() {
		refs[p.Source] += p.MaxOutput
	}
	return refs
}
