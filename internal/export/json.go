package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/particlelife/internal/storage"
	"github.com/san-kum/particlelife/internal/telemetry"
)

// RunData bundles a stored run's metadata with its telemetry series.
type RunData struct {
	storage.RunMetadata
	Samples []storage.Sample    `json:"samples"`
	Perf    []telemetry.PerfRow `json:"perf,omitempty"`
}

// RunJSON loads run id from st and writes it as indented JSON.
func RunJSON(w io.Writer, st *storage.Store, id string) error {
	meta, err := st.Load(id)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(id)
	if err != nil {
		return err
	}
	perf, err := st.LoadPerf(id)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(RunData{RunMetadata: *meta, Samples: samples, Perf: perf})
}
