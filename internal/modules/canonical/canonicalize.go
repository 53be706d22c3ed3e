package canonical

// FieldDef is the canonical side of a mapping.
type FieldDef struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
}

// Mapping routes the value at SourceField into the canonical field Field.
type Mapping struct {
	SourceField string   `json:"sourceField"`
	Field       FieldDef `json:"canonicalField"`
}

// OutcomeStatus describes what a single mapping contributed to a record.
type OutcomeStatus string

const (
	OutcomeApplied     OutcomeStatus = "applied"
	OutcomeUnresolved  OutcomeStatus = "unresolved"
	OutcomeUncoercible OutcomeStatus = "uncoercible"
)

type Outcome struct {
	SourceField string        `json:"sourceField"`
	TargetField string        `json:"targetField"`
	Status      OutcomeStatus `json:"status"`
	// Overridden is set when a later mapping replaced this applied value.
	Overridden bool `json:"overridden,omitempty"`
}

// Result is a canonical record plus one outcome per mapping, in mapping order.
type Result struct {
	Record   Record    `json:"record"`
	Outcomes []Outcome `json:"outcomes"`
}

// Applied counts mappings that wrote a value.
func (r Result) Applied() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == OutcomeApplied {
			n++
		}
	}
	return n
}

// Canonicalize applies mappings in order to doc. Mappings whose path misses
// or whose value does not coerce are skipped; when several mappings target
// the same field the last successful one wins.
func Canonicalize(doc Node, mappings []Mapping) Record {
	return Apply(doc, mappings).Record
}

// Apply is Canonicalize with per-mapping outcomes.
func Apply(doc Node, mappings []Mapping) Result {
	res := Result{
		Record:   make(Record, len(mappings)),
		Outcomes: make([]Outcome, 0, len(mappings)),
	}
	lastApplied := make(map[string]int, len(mappings))

	for _, m := range mappings {
		out := Outcome{SourceField: m.SourceField, TargetField: m.Field.Name}

		raw, ok := Resolve(doc, m.SourceField)
		if !ok || raw.IsNull() {
			out.Status = OutcomeUnresolved
			res.Outcomes = append(res.Outcomes, out)
			continue
		}
		val, ok := Coerce(raw, m.Field.DataType)
		if !ok {
			out.Status = OutcomeUncoercible
			res.Outcomes = append(res.Outcomes, out)
			continue
		}

		if prev, seen := lastApplied[m.Field.Name]; seen {
			res.Outcomes[prev].Overridden = true
		}
		res.Record[m.Field.Name] = val
		out.Status = OutcomeApplied
		lastApplied[m.Field.Name] = len(res.Outcomes)
		res.Outcomes = append(res.Outcomes, out)
	}
	return res
}
