package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// AnalyzerStats summarizes one analyzer's output for a run.
type AnalyzerStats struct {
	ClassesFound  int `json:"classes_found"`
	Relationships int `json:"relationships"`
}

// RelationshipStats is the descriptive summary of the final edge list.
type RelationshipStats struct {
	Total                int                      `json:"total"`
	ByType               map[RelationshipType]int `json:"by_type"`
	TotalClasses         int                      `json:"total_classes"`
	CircularDependencies int                      `json:"circular_dependencies"`
}

// GraphSummary describes the dependency graph built from the final edges.
type GraphSummary struct {
	Nodes      int        `json:"nodes"`
	Edges      int        `json:"edges"`
	Components [][]string `json:"strongly_connected_components,omitempty"`
}

// Meta carries run-level information about a Schema.
type Meta struct {
	Root                 string                   `json:"root,omitempty"`
	FilesScanned         int                      `json:"files_scanned"`
	ClassesFound         int                      `json:"classes_found"`
	Languages            []string                 `json:"languages"`
	FailedFiles          int                      `json:"failed_files"`
	SkippedFiles         int                      `json:"skipped_files"`
	AnalyzerStats        map[string]AnalyzerStats `json:"analyzer_stats,omitempty"`
	RelationshipStats    RelationshipStats        `json:"relationship_stats"`
	CircularDependencies [][]string               `json:"circular_dependencies,omitempty"`
	Graph                *GraphSummary            `json:"graph,omitempty"`
}

// Schema is the complete output of one analysis run. It is built once and
// must be treated as read-only afterwards.
type Schema struct {
	Classes   map[string][]ClassRecord
	Relations []RelationshipEdge
	Endpoints []Endpoint
	Meta      Meta
}

// NewSchema returns an empty schema with non-nil collections.
func NewSchema() *Schema {
	return &Schema{
		Classes:   make(map[string][]ClassRecord),
		Relations: []RelationshipEdge{},
		Endpoints: []Endpoint{},
	}
}

// AllClasses returns every class record across languages, ordered by language name.
func (s *Schema) AllClasses() []ClassRecord {
	langs := make([]string, 0, len(s.Classes))
	for lang := range s.Classes {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	var out []ClassRecord
	for _, lang := range langs {
		out = append(out, s.Classes[lang]...)
	}
	return out
}

// MarshalJSON flattens the per-language class lists next to relations, endpoints and meta.
func (s *Schema) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Classes)+3)
	for lang, classes := range s.Classes {
		out[lang] = classes
	}
	out["relations"] = s.Relations
	out["endpoints"] = s.Endpoints
	out["meta"] = s.Meta
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = *NewSchema()
	for key, value := range raw {
		var err error
		switch key {
		case "relations":
			err = json.Unmarshal(value, &s.Relations)
		case "endpoints":
			err = json.Unmarshal(value, &s.Endpoints)
		case "meta":
			err = json.Unmarshal(value, &s.Meta)
		default:
			var classes []ClassRecord
			err = json.Unmarshal(value, &classes)
			s.Classes[key] = classes
		}
		if err != nil {
			return fmt.Errorf("failed to decode %q: %w", key, err)
		}
	}
	return nil
}
