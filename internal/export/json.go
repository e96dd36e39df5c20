package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/pidlab/internal/storage"
)

type RunData struct {
	storage.RunMetadata
	Times    []storage.Float   `json:"times"`
	Dts      []storage.Float   `json:"dts"`
	States   [][]storage.Float `json:"states"`
	Controls [][]storage.Float `json:"controls"`
}

// WriteJSON writes run metadata together with its trajectory.
func WriteJSON(w io.Writer, meta *storage.RunMetadata, trace *storage.Trace) error {
	data := RunData{
		RunMetadata: *meta,
		Times:       floats(trace.Times),
		Dts:         floats(trace.Dts),
		States:      make([][]storage.Float, len(trace.States)),
		Controls:    make([][]storage.Float, len(trace.Controls)),
	}
	for i, s := range trace.States {
		data.States[i] = floats(s)
	}
	for i, c := range trace.Controls {
		data.Controls[i] = floats(c)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func floats(v []float64) []storage.Float {
	out := make([]storage.Float, len(v))
	for i, x := range v {
		out[i] = storage.Float(x)
	}
	return out
}
