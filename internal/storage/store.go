package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/pidlab/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	logger  *slog.Logger
}

func New(baseDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{baseDir: baseDir, logger: logger}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type Gains struct {
	Kp float64 `json:"kp"`
	Ti float64 `json:"ti"`
	Td float64 `json:"td"`
}

type RunMetadata struct {
	ID         string           `json:"id"`
	Plant      string           `json:"plant"`
	Timestamp  time.Time        `json:"timestamp"`
	Seed       int64            `json:"seed"`
	Dt         float64          `json:"dt"`
	Duration   float64          `json:"duration"`
	Jitter     float64          `json:"jitter"`
	Integrator string           `json:"integrator"`
	Controller string           `json:"controller"`
	Target     float64          `json:"target"`
	Gains      Gains            `json:"gains"`
	Steps      int              `json:"steps"`
	Metrics    map[string]Float `json:"metrics"`
	Errors     []string         `json:"errors,omitempty"`
}

// Trace is the per-tick record of a run. Dts and Controls have one entry
// per tick; Times and States also hold the initial sample.
type Trace struct {
	Times    []float64
	Dts      []float64
	States   [][]float64
	Controls [][]float64
}

// Save writes meta and the trajectory of result under a new run id. ID,
// Timestamp, Steps, Metrics and Errors are filled from result.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Plant, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Steps = result.StepsTaken
	meta.Metrics = Floats(result.Metrics)
	meta.Errors = nil
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTrace(filepath.Join(runDir, traceFile), result); err != nil {
		return "", err
	}

	s.logger.Debug("run saved", "id", runID, "dir", runDir, "steps", meta.Steps)
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrace(path string, result *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if len(result.States) == 0 {
		w.Flush()
		return w.Error()
	}

	numStates := len(result.States[0])
	numControls := 0
	if len(result.Controls) > 0 {
		numControls = len(result.Controls[0])
	}

	header := []string{"time", "dt"}
	for i := 0; i < numStates; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	for i := 0; i < numControls; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, state := range result.States {
		row := make([]string, 0, len(header))
		row = append(row, formatFloat(result.Times[i]))

		if i < len(result.Dts) {
			row = append(row, formatFloat(result.Dts[i]))
		} else {
			row = append(row, "")
		}

		for _, val := range state {
			row = append(row, formatFloat(val))
		}

		for j := 0; j < numControls; j++ {
			if i < len(result.Controls) && j < len(result.Controls[i]) {
				row = append(row, formatFloat(result.Controls[i][j]))
			} else {
				row = append(row, "")
			}
		}

		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			s.logger.Warn("skipping unreadable run", "dir", entry.Name(), "err", err)
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadTrace(runID string) (*Trace, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	trace := &Trace{}
	if len(records) < 2 {
		return trace, nil
	}

	var stateCols, controlCols []int
	for i, name := range records[0] {
		switch {
		case strings.HasPrefix(name, "x"):
			stateCols = append(stateCols, i)
		case strings.HasPrefix(name, "u"):
			controlCols = append(controlCols, i)
		}
	}

	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: %s: bad time %q: %w", runID, record[0], err)
		}
		trace.Times = append(trace.Times, t)

		if record[1] != "" {
			dt, err := strconv.ParseFloat(record[1], 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s: bad dt %q: %w", runID, record[1], err)
			}
			trace.Dts = append(trace.Dts, dt)
		}

		trace.States = append(trace.States, parseColumns(record, stateCols))
		if u := parseColumns(record, controlCols); len(u) > 0 {
			trace.Controls = append(trace.Controls, u)
		}
	}

	return trace, nil
}

// parseColumns reads the given columns of record, skipping empty cells.
func parseColumns(record []string, cols []int) []float64 {
	vals := make([]float64, 0, len(cols))
	for _, c := range cols {
		if c >= len(record) || record[c] == "" {
			continue
		}
		v, err := strconv.ParseFloat(record[c], 64)
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	return vals
}
