package api

import (
	"github.com/hupe1980/vecfield"
	"github.com/hupe1980/vecfield/mapping"
)

// FieldJSON is the JSON report of one compiled field.
type FieldJSON struct {
	Name      string `json:"name"`
	Variant   string `json:"variant,omitempty"`
	Dimension int    `json:"dimension,omitempty"`
	Engine    string `json:"engine,omitempty"`
	Storage   string `json:"storage,omitempty"`
	ModelID   string `json:"model_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Class     string `json:"class,omitempty"`
}

// NewFieldJSON converts a compile report.
func NewFieldJSON(r vecfield.FieldReport) FieldJSON {
	out := FieldJSON{Name: r.Name}
	if r.Err != nil {
		out.Error = r.Err.Error()
		out.Class = vecfield.Classify(r.Err).String()
		return out
	}

	f := r.Field
	out.Variant = string(f.Variant().Kind())
	out.Dimension = f.Dimension()
	switch v := f.Variant().(type) {
	case mapping.EngineNative:
		out.Engine = string(v.Method.Engine())
		out.Storage = string(v.Storage)
	case mapping.ModelReference:
		out.ModelID = v.ModelID
	}
	return out
}

// DocumentJSON is the JSON result of one indexed document.
type DocumentJSON struct {
	ID      uint32 `json:"id"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
	Class   string `json:"class,omitempty"`
}

// NewDocumentJSON converts a batch result.
func NewDocumentJSON(r vecfield.Result) DocumentJSON {
	out := DocumentJSON{ID: r.ID, Outcome: r.Outcome.String()}
	if r.Err != nil {
		out.Error = r.Err.Error()
		out.Class = vecfield.Classify(r.Err).String()
	}
	return out
}
