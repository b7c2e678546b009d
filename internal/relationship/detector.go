// Package relationship validates, deduplicates and enriches the candidate
// edges produced by the language analyzers once every file has been analyzed.
package relationship

import (
	"log/slog"
	"strings"

	"github.com/mvp-joe/classmap/internal/model"
)

// Detector holds the globally complete class set for one run together with
// the current relationship list. It must only be built after every analyzer
// has finished, since validation needs the full set of known class names.
type Detector struct {
	classes       []model.ClassRecord
	byName        map[string]model.ClassRecord
	known         map[string]struct{}
	relationships []model.RelationshipEdge
	logger        *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger used for pass summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// NewDetector creates a detector over the given class records. When several
// records share a name, the last one wins for abstract-base lookups.
func NewDetector(classes []model.ClassRecord, opts ...Option) *Detector {
	d := &Detector{
		classes: classes,
		byName:  make(map[string]model.ClassRecord, len(classes)),
		known:   make(map[string]struct{}, len(classes)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, c := range classes {
		if c.Name == "" {
			continue
		}
		d.byName[c.Name] = c
		d.known[c.Name] = struct{}{}
	}
	return d
}

// Add appends candidate edges to the detector's relationship list.
func (d *Detector) Add(edges ...model.RelationshipEdge) {
	d.relationships = append(d.relationships, edges...)
}

// Relationships returns the current relationship list.
func (d *Detector) Relationships() []model.RelationshipEdge {
	out := make([]model.RelationshipEdge, len(d.relationships))
	copy(out, d.relationships)
	return out
}

// KnownClasses returns the number of distinct known class names.
func (d *Detector) KnownClasses() int {
	return len(d.known)
}

// Known reports whether name is a discovered class.
func (d *Detector) Known(name string) bool {
	_, ok := d.known[name]
	return ok
}

// Validate returns the edges that pass every validity rule. Invalid edges are
// dropped silently; heuristic extraction is expected to be noisy.
func (d *Detector) Validate() []model.RelationshipEdge {
	valid := make([]model.RelationshipEdge, 0, len(d.relationships))
	for _, e := range d.relationships {
		if d.valid(e) {
			valid = append(valid, e)
		}
	}
	d.logger.Debug("validated relationships", "valid", len(valid), "total", len(d.relationships))
	return valid
}

func (d *Detector) valid(e model.RelationshipEdge) bool {
	if e.From == "" || e.To == "" || !e.Type.Valid() {
		return false
	}
	if e.Type == model.Dependency {
		return true
	}
	if e.From == e.To {
		return false
	}
	return d.Known(e.From) && d.Known(e.To)
}

// Deduplicate removes edges with a repeated (from, to, type) key, keeping the
// first occurrence and the original order.
func Deduplicate(edges []model.RelationshipEdge) []model.RelationshipEdge {
	out := make([]model.RelationshipEdge, 0, len(edges))
	seen := make(map[model.EdgeKey]struct{}, len(edges))
	for _, e := range edges {
		k := e.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Infer derives additional edges from the class records and the current
// relationship list: typed fields naming a known class become composition
// edges, and a concrete class extending an abstract base also implements it.
func (d *Detector) Infer() []model.RelationshipEdge {
	var inferred []model.RelationshipEdge

	for _, c := range d.classes {
		for _, field := range c.Fields {
			typ, ok := model.FieldType(field)
			if !ok {
				continue
			}
			typ = bareTypeName(typ)
			if typ == "" || typ == c.Name || !d.Known(typ) {
				continue
			}
			inferred = append(inferred, model.RelationshipEdge{
				From:   c.Name,
				To:     typ,
				Type:   model.Composition,
				Source: model.SourceInferred,
			})
		}
	}

	for _, c := range d.classes {
		if c.Abstract {
			continue
		}
		for _, e := range d.relationships {
			if e.Type != model.Extends || e.To != c.Name {
				continue
			}
			base, ok := d.byName[e.From]
			if !ok || !base.Abstract {
				continue
			}
			inferred = append(inferred, model.RelationshipEdge{
				From:   e.From,
				To:     c.Name,
				Type:   model.Implements,
				Source: model.SourceInferred,
			})
		}
	}

	d.logger.Debug("inferred relationships", "count", len(inferred))
	return inferred
}

// Run executes validate, deduplicate and infer in order and returns the
// final relationship list, which also becomes the detector's current list.
func (d *Detector) Run() []model.RelationshipEdge {
	raw := len(d.relationships)
	edges := Deduplicate(d.Validate())
	for i := range edges {
		if edges[i].Source == "" {
			edges[i].Source = model.SourceHeuristic
		}
	}
	d.relationships = edges

	if inferred := d.Infer(); len(inferred) > 0 {
		d.relationships = Deduplicate(append(d.relationships, inferred...))
	}

	d.logger.Info("relationships resolved",
		"raw", raw,
		"final", len(d.relationships),
		"classes", len(d.known))
	return d.Relationships()
}

// ClassRelations lists the edges touching one class.
type ClassRelations struct {
	Incoming []model.RelationshipEdge `json:"incoming"`
	Outgoing []model.RelationshipEdge `json:"outgoing"`
	Total    int                      `json:"total"`
}

// ClassRelationships returns the incoming and outgoing edges of name. A
// dependency self-edge appears in both lists.
func (d *Detector) ClassRelationships(name string) ClassRelations {
	rel := ClassRelations{
		Incoming: []model.RelationshipEdge{},
		Outgoing: []model.RelationshipEdge{},
	}
	for _, e := range d.relationships {
		if e.From == name {
			rel.Outgoing = append(rel.Outgoing, e)
		}
		if e.To == name {
			rel.Incoming = append(rel.Incoming, e)
		}
	}
	rel.Total = len(rel.Incoming) + len(rel.Outgoing)
	return rel
}

// Categorize buckets edges by type. Every known type has an entry, possibly empty.
func Categorize(edges []model.RelationshipEdge) map[model.RelationshipType][]model.RelationshipEdge {
	out := make(map[model.RelationshipType][]model.RelationshipEdge, len(model.RelationshipTypes))
	for _, t := range model.RelationshipTypes {
		out[t] = []model.RelationshipEdge{}
	}
	for _, e := range edges {
		if _, ok := out[e.Type]; ok {
			out[e.Type] = append(out[e.Type], e)
		}
	}
	return out
}

// FilterByStrength keeps the edges whose tier is at or stronger than threshold.
func FilterByStrength(edges []model.RelationshipEdge, threshold model.Strength) []model.RelationshipEdge {
	out := make([]model.RelationshipEdge, 0, len(edges))
	for _, e := range edges {
		if model.StrengthOf(e.Type) <= threshold {
			out = append(out, e)
		}
	}
	return out
}

// Statistics summarizes the current relationship list.
func (d *Detector) Statistics() model.RelationshipStats {
	byType := make(map[model.RelationshipType]int)
	for t, edges := range Categorize(d.relationships) {
		if len(edges) > 0 {
			byType[t] = len(edges)
		}
	}
	return model.RelationshipStats{
		Total:                len(d.relationships),
		ByType:               byType,
		TotalClasses:         len(d.known),
		CircularDependencies: len(d.findCycles()),
	}
}

// bareTypeName drops generic and array suffixes from a declared type.
func bareTypeName(typ string) string {
	if i := strings.IndexAny(typ, "<["); i >= 0 {
		typ = typ[:i]
	}
	return strings.TrimSpace(typ)
}
