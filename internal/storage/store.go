// Package storage keeps a directory of finished runs: a metadata.json per
// run plus CSV tables of sampled observables and stage timings. Particle
// state itself is never stored.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/particlelife/internal/telemetry"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Preset      string             `json:"preset,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        uint64             `json:"seed"`
	Types       int                `json:"types"`
	Particles   int                `json:"particles"`
	Width       float64            `json:"width"`
	Height      float64            `json:"height"`
	Wrap        bool               `json:"wrap"`
	Friction    float64            `json:"friction"`
	DeltaTime   float64            `json:"delta_time"`
	Kernel      string             `json:"kernel"`
	Backend     string             `json:"backend"`
	Steps       int                `json:"steps"`
	SimTime     float64            `json:"sim_time"`
	WallSeconds float64            `json:"wall_seconds"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes a new run directory and returns its ID. samples and perf may
// be empty.
func (s *Store) Save(meta RunMetadata, samples []Sample, perf []telemetry.PerfRow) (string, error) {
	name := meta.Preset
	if name == "" {
		name = "custom"
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.ID = fmt.Sprintf("%s_%s", name, meta.Timestamp.Format("20060102-150405.000000"))
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if len(samples) > 0 {
		if err := writeCSV(filepath.Join(runDir, "samples.csv"), &samples); err != nil {
			return "", err
		}
	}
	if len(perf) > 0 {
		if err := writeCSV(filepath.Join(runDir, "perf.csv"), &perf); err != nil {
			return "", err
		}
	}
	return meta.ID, nil
}

func writeCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
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
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples reads a run's samples.csv. A run saved without samples has
// none.
func (s *Store) LoadSamples(runID string) ([]Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return []Sample{}, nil
		}
		return nil, err
	}
	defer f.Close()

	var samples []Sample
	if err := gocsv.UnmarshalFile(f, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// LoadPerf reads a run's perf.csv.
func (s *Store) LoadPerf(runID string) ([]telemetry.PerfRow, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "perf.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return []telemetry.PerfRow{}, nil
		}
		return nil, err
	}
	defer f.Close()

	var rows []telemetry.PerfRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
