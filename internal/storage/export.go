package storage

import (
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/san-kum/dynjoint/internal/config"
	"github.com/san-kum/dynjoint/internal/scenario"
)

// Float is a float64 whose JSON form keeps infinities as the strings
// "+Inf" and "-Inf".
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return json.Marshal(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return json.Marshal(v)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = Float(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

type ExportSample struct {
	Step        int     `json:"step"`
	Time        float64 `json:"time"`
	Distance    float64 `json:"distance"`
	Force       Float   `json:"force"`
	Torque      Float   `json:"torque"`
	Unbreakable bool    `json:"unbreakable"`
	Live        bool    `json:"live"`
}

type ExportData struct {
	RunMetadata
	Samples []ExportSample `json:"samples"`
}

// ExportJSON writes a run and all of its samples as one JSON document.
func ExportJSON(w io.Writer, cfg *config.Config, result *scenario.Result) error {
	data := ExportData{
		RunMetadata: newMetadata(cfg, result),
		Samples:     make([]ExportSample, len(result.Samples)),
	}
	for i, s := range result.Samples {
		data.Samples[i] = ExportSample{
			Step:        s.Step,
			Time:        s.Time,
			Distance:    s.Distance,
			Force:       Float(s.Force),
			Torque:      Float(s.Torque),
			Unbreakable: s.Unbreakable,
			Live:        s.Live,
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
