package canonical

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeBalance(t *testing.T) {
	doc := mustParse(t, `{"balance":"1,200"}`)
	rec := Canonicalize(doc, []Mapping{
		{SourceField: "balance", Field: FieldDef{Name: "balance", DataType: "decimal"}},
	})
	assert.Equal(t, map[string]any{"balance": 1200.0}, rec.Map())
}

func TestCanonicalizeLastWriteWins(t *testing.T) {
	doc := mustParse(t, `{"first":"A","second":"B"}`)
	m1 := Mapping{SourceField: "first", Field: FieldDef{Name: "name", DataType: "string"}}
	m2 := Mapping{SourceField: "second", Field: FieldDef{Name: "name", DataType: "string"}}

	assert.Equal(t, "B", Canonicalize(doc, []Mapping{m1, m2})["name"].Interface())
	assert.Equal(t, "A", Canonicalize(doc, []Mapping{m2, m1})["name"].Interface())
}

func TestCanonicalizeFailedLaterMappingKeepsEarlierValue(t *testing.T) {
	doc := mustParse(t, `{"score":"700","alt":"n/a"}`)
	rec := Canonicalize(doc, []Mapping{
		{SourceField: "score", Field: FieldDef{Name: "score", DataType: "int"}},
		{SourceField: "alt", Field: FieldDef{Name: "score", DataType: "int"}},
		{SourceField: "missing", Field: FieldDef{Name: "score", DataType: "int"}},
	})
	assert.Equal(t, 700.0, rec["score"].Interface())
}

func TestApplyOutcomes(t *testing.T) {
	doc := mustParse(t, `{
		"CREDIT_RESPONSE": {
			"BORROWER": [{"FirstName": "Jane", "BirthDate": "1980-02-29"}],
			"CREDIT_SCORE": [{"Value": "712"}, {"Value": "690"}]
		},
		"flag": "maybe",
		"n": null
	}`)
	res := Apply(doc, []Mapping{
		{SourceField: "CREDIT_RESPONSE.BORROWER.FirstName", Field: FieldDef{Name: "firstName", DataType: "string"}},
		{SourceField: "CREDIT_RESPONSE.BORROWER.BirthDate", Field: FieldDef{Name: "dateOfBirth", DataType: "date"}},
		{SourceField: "CREDIT_RESPONSE.CREDIT_SCORE[*].Value", Field: FieldDef{Name: "creditScore", DataType: "int"}},
		{SourceField: "flag", Field: FieldDef{Name: "isFrozen", DataType: "bool"}},
		{SourceField: "n", Field: FieldDef{Name: "nothing", DataType: "string"}},
		{SourceField: "missing.path", Field: FieldDef{Name: "nothing", DataType: "string"}},
	})

	require.Len(t, res.Outcomes, 6)
	statuses := make([]OutcomeStatus, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		statuses = append(statuses, o.Status)
	}
	assert.Equal(t, []OutcomeStatus{
		OutcomeApplied, OutcomeApplied, OutcomeApplied,
		OutcomeUncoercible, OutcomeUnresolved, OutcomeUnresolved,
	}, statuses)
	assert.Equal(t, 3, res.Applied())

	raw, err := json.Marshal(res.Record)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"firstName": "Jane",
		"dateOfBirth": "1980-02-29T00:00:00.000Z",
		"creditScore": 712
	}`, string(raw))
}

func TestApplyMarksOverriddenOutcome(t *testing.T) {
	doc := mustParse(t, `{"a":"1","b":"2"}`)
	res := Apply(doc, []Mapping{
		{SourceField: "a", Field: FieldDef{Name: "x", DataType: "string"}},
		{SourceField: "b", Field: FieldDef{Name: "x", DataType: "string"}},
	})
	assert.True(t, res.Outcomes[0].Overridden)
	assert.False(t, res.Outcomes[1].Overridden)
}

func TestCanonicalizeDoesNotMutateDocument(t *testing.T) {
	doc := mustParse(t, `{"balance":"1,200","nested":{"list":[1,2]}}`)
	before := doc.Interface()
	_ = Canonicalize(doc, []Mapping{
		{SourceField: "balance", Field: FieldDef{Name: "balance", DataType: "decimal"}},
		{SourceField: "nested.list", Field: FieldDef{Name: "first", DataType: "int"}},
	})
	assert.Equal(t, before, doc.Interface())
}

func TestCanonicalizeEmptyMappings(t *testing.T) {
	rec := Canonicalize(mustParse(t, `{"a":1}`), nil)
	assert.Empty(t, rec)
}
