package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hupe1980/vecfield"
	"github.com/hupe1980/vecfield/codec"
)

type validateResponse struct {
	Valid  bool        `json:"valid"`
	Fields []FieldJSON `json:"fields"`
}

type ingestRequest struct {
	Docs []struct {
		ID    uint32 `json:"id"`
		Value any    `json:"value"`
	} `json:"docs"`
}

type ingestResponse struct {
	Field   string         `json:"field"`
	Indexed int            `json:"indexed"`
	Failed  int            `json:"failed"`
	Results []DocumentJSON `json:"results"`
}

type countResponse struct {
	Field string `json:"field"`
	Count uint64 `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) readNode(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	node, err := codec.DecodeNode(s.codec, body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return node, true
}

func (s *Server) compile(w http.ResponseWriter, r *http.Request) (validateResponse, bool) {
	node, ok := s.readNode(w, r)
	if !ok {
		return validateResponse{}, false
	}
	reports, err := s.mapper.CompileMapping(node)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return validateResponse{}, false
	}

	resp := validateResponse{Valid: true, Fields: make([]FieldJSON, 0, len(reports))}
	for _, rep := range reports {
		if rep.Err != nil {
			resp.Valid = false
		}
		resp.Fields = append(resp.Fields, NewFieldJSON(rep))
	}
	return resp, true
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.compile(w, r)
	if !ok {
		return
	}
	status := http.StatusOK
	if !resp.Valid {
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, resp)
}

// ErrInvalidMapping is returned by Apply when a field fails to compile or
// merge.
var ErrInvalidMapping = errors.New("invalid mapping")

// Apply registers the vector fields of doc. Existing fields are merged;
// nothing is registered unless every field compiles.
func (s *Server) Apply(doc map[string]any) ([]FieldJSON, error) {
	props, ok := doc["properties"].(map[string]any)
	if !ok {
		return nil, errors.New("mapping has no properties object")
	}
	reports, err := s.mapper.CompileMapping(doc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	valid := true
	fields := make([]FieldJSON, 0, len(reports))
	for i, rep := range reports {
		if old, exists := s.fields[rep.Name]; exists && rep.Err == nil {
			fieldNode, _ := props[rep.Name].(map[string]any)
			rep.Field, rep.Err = s.mapper.Merge(old, fieldNode)
			reports[i] = rep
		}
		if rep.Err != nil {
			valid = false
		}
		fields = append(fields, NewFieldJSON(rep))
	}
	if !valid {
		return fields, ErrInvalidMapping
	}
	for _, rep := range reports {
		s.fields[rep.Name] = rep.Field
	}
	return fields, nil
}

func (s *Server) handlePutMapping(w http.ResponseWriter, r *http.Request) {
	node, ok := s.readNode(w, r)
	if !ok {
		return
	}
	fields, err := s.Apply(node)
	switch {
	case errors.Is(err, ErrInvalidMapping):
		s.writeJSON(w, http.StatusBadRequest, validateResponse{Valid: false, Fields: fields})
	case err != nil:
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeJSON(w, http.StatusOK, validateResponse{Valid: true, Fields: fields})
	}
}

func (s *Server) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	props := make(map[string]any)
	for _, name := range s.fieldNames() {
		if f, ok := s.Field(name); ok {
			props[name] = f.Export(r.URL.Query().Get("include_defaults") == "true")
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"properties": props})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	field, ok := s.Field(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown field ["+name+"]")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	var req ingestRequest
	if err := s.codec.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	docs := make([]vecfield.Document, len(req.Docs))
	for i, d := range req.Docs {
		docs[i] = vecfield.Document{ID: d.ID, Value: d.Value}
	}

	resp := ingestResponse{Field: name, Results: make([]DocumentJSON, 0, len(docs))}
	for _, res := range s.mapper.IndexBatch(r.Context(), field, docs) {
		switch {
		case res.Err != nil:
			resp.Failed++
		case res.Outcome == vecfield.OutcomeIndexed:
			resp.Indexed++
		}
		resp.Results = append(resp.Results, NewDocumentJSON(res))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, ok := s.Field(name); !ok {
		s.writeError(w, http.StatusNotFound, "unknown field ["+name+"]")
		return
	}
	s.writeJSON(w, http.StatusOK, countResponse{Field: name, Count: s.store.Count(name)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"fields": s.fieldNames(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := s.codec.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
