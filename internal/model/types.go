package model

import "strings"

// RelationshipType is the closed set of edge kinds between two classes.
type RelationshipType string

const (
	Extends     RelationshipType = "extends"
	Implements  RelationshipType = "implements"
	Composition RelationshipType = "composition"
	Aggregation RelationshipType = "aggregation"
	Uses        RelationshipType = "uses"
	Dependency  RelationshipType = "dependency"
	Association RelationshipType = "association"
)

// RelationshipTypes lists every valid relationship type in reporting order.
var RelationshipTypes = []RelationshipType{
	Extends, Implements, Composition, Aggregation, Uses, Dependency, Association,
}

// Valid reports whether t belongs to the closed relationship-type set.
func (t RelationshipType) Valid() bool {
	switch t {
	case Extends, Implements, Composition, Aggregation, Uses, Dependency, Association:
		return true
	}
	return false
}

// EdgeSource records how an edge was produced.
type EdgeSource string

const (
	SourceHeuristic EdgeSource = "heuristic"
	SourceInferred  EdgeSource = "inferred"
	SourceAI        EdgeSource = "ai"
)

// Stereotype classifies a ClassRecord.
type Stereotype string

const (
	StereotypeClass     Stereotype = "class"
	StereotypeInterface Stereotype = "interface"
	StereotypeAbstract  Stereotype = "abstract"
	StereotypeEnum      Stereotype = "enum"
	StereotypeStruct    Stereotype = "struct"
)

// ClassRecord is one discovered type.
type ClassRecord struct {
	Name       string     `json:"name"`
	Language   string     `json:"language"`
	Fields     []string   `json:"fields"`
	Methods    []string   `json:"methods"`
	Stereotype Stereotype `json:"stereotype"`
	Abstract   bool       `json:"abstract"`
	Package    string     `json:"package,omitempty"`
	File       string     `json:"file,omitempty"`
}

// FieldType returns the declared type of a field string of the form "name: Type".
// ok is false for untyped fields.
func FieldType(field string) (typ string, ok bool) {
	_, after, found := strings.Cut(field, ":")
	if !found {
		return "", false
	}
	typ = strings.TrimSpace(after)
	return typ, typ != ""
}

// FieldName returns the name part of a field string.
func FieldName(field string) string {
	name, _, _ := strings.Cut(field, ":")
	return strings.TrimSpace(name)
}

// Multiplicity annotates the cardinality at both ends of an edge.
type Multiplicity struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RelationshipEdge is a directed, typed link between two class names.
// Inheritance edges point from the base type to the subtype.
type RelationshipEdge struct {
	From         string           `json:"from"`
	To           string           `json:"to"`
	Type         RelationshipType `json:"type"`
	Source       EdgeSource       `json:"source,omitempty"`
	Multiplicity *Multiplicity    `json:"multiplicity,omitempty"`
}

// EdgeKey identifies an edge for de-duplication.
type EdgeKey struct {
	From string
	To   string
	Type RelationshipType
}

// Key returns the de-duplication key of the edge.
func (e RelationshipEdge) Key() EdgeKey {
	return EdgeKey{From: e.From, To: e.To, Type: e.Type}
}

// Endpoint is an HTTP route discovered in source.
type Endpoint struct {
	Framework string `json:"framework"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Class     string `json:"class,omitempty"`
	File      string `json:"file,omitempty"`
}
