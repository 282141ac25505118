package ingest

import (
	"io"

	"grid_simulator/internal/model"
)

// Sample is one row of hourly observations. Variables absent from the
// source or marked unavailable are missing from Values.
type Sample struct {
	Hour   int
	Values map[model.Variable]float64
}

// Parser reads hourly weather samples from a source.
type Parser interface {
	Parse(r io.Reader) ([]Sample, error)
}
