package fingerprint

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/Greg-CS/document-parser-sub001/internal/modules/canonical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fingerprintFormat = regexp.MustCompile(`^$|^fp_[0-9a-z]+$`)

func doc(t *testing.T, raw string) canonical.Node {
	t.Helper()
	n, err := canonical.Parse([]byte(raw))
	require.NoError(t, err)
	return n
}

func TestComputeIsIdempotent(t *testing.T) {
	d := doc(t, `{"firstName":"Jane","lastName":"Doe","ssn":"123-45-6789"}`)
	first := Compute(d)
	require.NotEmpty(t, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Compute(d))
	}
}

func TestComputeCaseAndWhitespaceInsensitive(t *testing.T) {
	a := doc(t, `{"firstName":"Jane ","lastName":"Doe","CREDIT_LIABILITY":[{"CreditLiabilityCreditorName":"Bank A"}]}`)
	b := doc(t, `{"firstName":"JANE","lastName":"Doe","CREDIT_LIABILITY":[{"CreditLiabilityCreditorName":"Bank A"}]}`)
	assert.Equal(t, Compute(a), Compute(b))
	assert.Equal(t, "firstName=jane;lastName=doe;accounts=bank a", Signals(a))
	assert.Equal(t, "fp_lewioy", Compute(a))
}

func TestComputeIgnoresAccountOrderAndNoise(t *testing.T) {
	a := doc(t, `{
		"fullName": "Mary  Ann   Smith",
		"CREDIT_LIABILITY": [
			{"CreditLiabilityAccountIdentifier": "111", "CreditLiabilityCreditorName": "Bank A", "CreditLiabilityAccountType": "Revolving"},
			{"CreditLiabilityAccountIdentifier": "222", "CreditLiabilityCreditorName": "Lender B"}
		]
	}`)
	b := doc(t, `{
		"fullName": "  mary ann\tsmith ",
		"CREDIT_LIABILITY": [
			{"CreditLiabilityAccountIdentifier": "222", "CreditLiabilityCreditorName": "LENDER  B"},
			{"CreditLiabilityAccountIdentifier": "111", "CreditLiabilityCreditorName": "bank a", "CreditLiabilityAccountType": "revolving"}
		]
	}`)
	assert.Equal(t, Compute(a), Compute(b))
	assert.Equal(t, "fullName=mary ann smith;accounts=111|bank a|revolving,222|lender b", Signals(a))
}

func TestComputeSensitivity(t *testing.T) {
	base := `{"firstName":"Jane","lastName":"Doe","phone":"555-0100","CREDIT_LIABILITY":[{"CreditLiabilityAccountIdentifier":"111"},{"CreditLiabilityAccountIdentifier":"222"}]}`
	variants := []string{
		base,
		`{"firstName":"Janet","lastName":"Doe","phone":"555-0100","CREDIT_LIABILITY":[{"CreditLiabilityAccountIdentifier":"111"},{"CreditLiabilityAccountIdentifier":"222"}]}`,
		`{"firstName":"Jane","lastName":"Dough","phone":"555-0100","CREDIT_LIABILITY":[{"CreditLiabilityAccountIdentifier":"111"},{"CreditLiabilityAccountIdentifier":"222"}]}`,
		`{"firstName":"Jane","lastName":"Doe","phone":"555-0101","CREDIT_LIABILITY":[{"CreditLiabilityAccountIdentifier":"111"},{"CreditLiabilityAccountIdentifier":"222"}]}`,
		`{"firstName":"Jane","lastName":"Doe","phone":"555-0100","CREDIT_LIABILITY":[{"CreditLiabilityAccountIdentifier":"111"},{"CreditLiabilityAccountIdentifier":"223"}]}`,
		`{"firstName":"Jane","lastName":"Doe","phone":"555-0100","CREDIT_LIABILITY":[{"CreditLiabilityAccountIdentifier":"111"}]}`,
		`{"firstName":"Jane","lastName":"Doe","phone":"555-0100","ssnLast4":"6789","CREDIT_LIABILITY":[{"CreditLiabilityAccountIdentifier":"111"},{"CreditLiabilityAccountIdentifier":"222"}]}`,
		`{"firstName":"Jane","lastName":"Doe"}`,
		`{"CREDIT_RESPONSE":{"BORROWER":[{"FirstName":"Jane","LastName":"Doe"}]}}`,
	}

	seen := map[string]int{}
	for i, raw := range variants {
		fp := Compute(doc(t, raw))
		require.NotEmpty(t, fp, "variant %d", i)
		prev, dup := seen[fp]
		require.False(t, dup, "variant %d collides with variant %d", i, prev)
		seen[fp] = i
	}
}

func TestComputeEmptySignal(t *testing.T) {
	cases := []string{
		`{}`,
		`null`,
		`[]`,
		`{"firstName":"   ","lastName":42,"CREDIT_LIABILITY":[]}`,
		`{"CREDIT_LIABILITY":[{"Unrelated":"x"},{"CreditLiabilityCreditorName":"  "}]}`,
		`{"unrelated":{"firstName":"Jane"}}`,
	}
	for _, raw := range cases {
		d := doc(t, raw)
		assert.Empty(t, Signals(d), raw)
		assert.Empty(t, Compute(d), raw)
	}
}

func TestComputeMISMOPaths(t *testing.T) {
	d := doc(t, `{
		"CREDIT_RESPONSE": {
			"BORROWER": [{"FirstName": " JANE ", "LastName": "Doe", "SSN": "123456789"}],
			"CREDIT_LIABILITY": [
				{"CreditLiabilityCreditorName": "Bank A", "CreditLiabilityAccountType": "Mortgage"}
			]
		}
	}`)
	assert.Equal(t,
		"CREDIT_RESPONSE.BORROWER.FirstName=jane;CREDIT_RESPONSE.BORROWER.LastName=doe;CREDIT_RESPONSE.BORROWER.SSN=123456789;accounts=bank a|mortgage",
		Signals(d))
}

func TestComputeTopLevelLiabilitiesTakePrecedence(t *testing.T) {
	d := doc(t, `{
		"CREDIT_LIABILITY": [{"CreditLiabilityCreditorName": "Top"}],
		"CREDIT_RESPONSE": {"CREDIT_LIABILITY": [{"CreditLiabilityCreditorName": "Nested"}]}
	}`)
	assert.Equal(t, "accounts=top", Signals(d))
}

func TestComputeCapsAccounts(t *testing.T) {
	entries := ""
	for i := 0; i < MaxAccounts+5; i++ {
		if i > 0 {
			entries += ","
		}
		entries += fmt.Sprintf(`{"CreditLiabilityAccountIdentifier":"acct-%02d"}`, i)
	}
	full := doc(t, `{"CREDIT_LIABILITY":[`+entries+`]}`)

	trimmed := ""
	for i := 0; i < MaxAccounts; i++ {
		if i > 0 {
			trimmed += ","
		}
		trimmed += fmt.Sprintf(`{"CreditLiabilityAccountIdentifier":"acct-%02d"}`, i)
	}
	capped := doc(t, `{"CREDIT_LIABILITY":[`+trimmed+`]}`)

	assert.Equal(t, Compute(capped), Compute(full))
}

func TestComputeFormat(t *testing.T) {
	docs := []string{
		`{}`,
		`{"firstName":"a"}`,
		`{"firstName":"éèê","phone":"+1 (555) 010-0100"}`,
		`{"fullName":"😀 emoji"}`,
	}
	for _, raw := range docs {
		assert.Regexp(t, fingerprintFormat, Compute(doc(t, raw)))
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("fp_abc", "fp_abc"))
	assert.False(t, Matches("fp_abc", "fp_abd"))
	assert.False(t, Matches("", ""))
	assert.False(t, Matches("", "fp_abc"))
}
