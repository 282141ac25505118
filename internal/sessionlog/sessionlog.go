package sessionlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"grid_simulator/internal/env"
)

var header = []string{"step", "actions", "score", "blackout"}

// Writer logs every decision of a play session as a CSV row. It implements
// env.Callback; write failures are logged and kept in Err.
type Writer struct {
	mu     sync.Mutex
	csv    *csv.Writer
	closer io.Closer
	path   string
	logger *logrus.Logger
	err    error
}

// Open creates <dir>/<prefix>_YYYYmmdd_HHMMSS.csv and writes the header.
func Open(dir, prefix string, now time.Time, logger *logrus.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, now.Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating session log: %w", err)
	}

	w, err := NewWriter(f, logger)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	w.path = path
	return w, nil
}

// NewWriter writes the header to out and returns a Writer appending to it.
func NewWriter(out io.Writer, logger *logrus.Logger) (*Writer, error) {
	w := &Writer{csv: csv.NewWriter(out), logger: logger}
	if err := w.write(header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return w, nil
}

// Path is the file being written, empty for writers not created by Open.
func (w *Writer) Path() string { return w.path }

func (w *Writer) OnReset(e env.ResetEvent) {
	w.logger.WithFields(logrus.Fields{
		"episode": e.Episode.ID,
		"seed":    e.Episode.Seed,
	}).Debug("Session log: new episode")
}

func (w *Writer) OnTurn(e env.TurnEvent) {
	info := e.Result.Info
	row := []string{
		strconv.Itoa(info.Turn),
		FormatActions(e.Action),
		strconv.FormatFloat(info.Summary.Score, 'f', -1, 64),
		strconv.FormatBool(info.IsBlackout),
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.write(row); err != nil {
		w.err = err
		w.logger.WithError(err).Warn("Session log write failed")
	}
}

func (w *Writer) write(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Err returns the last write error.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Flush()
	if w.closer == nil {
		return w.csv.Error()
	}
	return w.closer.Close()
}

// FormatActions renders an action vector as "[a, b, c]".
func FormatActions(action []float64) string {
	parts := make([]string, len(action))
	for i, a := range action {
		parts[i] = strconv.FormatFloat(a, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
