// Package fingerprint derives a short similarity key from a parsed credit
// report. Two documents describing the same subject and accounts map to the
// same key regardless of casing, whitespace, or account order.
//
// The key is not a security hash.
package fingerprint

import (
	"sort"
	"strings"

	"github.com/Greg-CS/document-parser-sub001/internal/modules/canonical"
	"github.com/Greg-CS/document-parser-sub001/internal/normalization"
)

// MaxAccounts caps how many liability entries contribute to a fingerprint.
const MaxAccounts = 20

// IdentityPaths are read in order; each resolved non-blank string adds one
// signal.
var IdentityPaths = []string{
	"CREDIT_RESPONSE.BORROWER.FirstName",
	"CREDIT_RESPONSE.BORROWER.MiddleName",
	"CREDIT_RESPONSE.BORROWER.LastName",
	"CREDIT_RESPONSE.BORROWER.UnparsedName",
	"CREDIT_RESPONSE.BORROWER.SSN",
	"firstName",
	"middleName",
	"lastName",
	"fullName",
	"phone",
	"ssn",
	"ssnLast4",
}

// AccountPaths lists where liability collections live; the first one that
// resolves to an array is used.
var AccountPaths = []string{
	"CREDIT_LIABILITY",
	"CREDIT_RESPONSE.CREDIT_LIABILITY",
}

// AccountFields are extracted from each liability entry.
var AccountFields = []string{
	"CreditLiabilityAccountIdentifier",
	"CreditLiabilityCreditorName",
	"CreditLiabilityAccountType",
}

// Compute returns the fingerprint of doc, or "" when doc carries no identity
// or account signal.
func Compute(doc canonical.Node) string {
	sig := Signals(doc)
	if sig == "" {
		return ""
	}
	return encode(rollingHash(sig))
}

// Signals returns the normalized signal string Compute hashes.
func Signals(doc canonical.Node) string {
	parts := make([]string, 0, len(IdentityPaths)+1)
	for _, p := range IdentityPaths {
		if v, ok := normalizedString(doc, p); ok {
			parts = append(parts, p+"="+v)
		}
	}
	if accts := accountSignals(doc); len(accts) > 0 {
		parts = append(parts, "accounts="+strings.Join(accts, ","))
	}
	return strings.Join(parts, ";")
}

// Matches reports whether two fingerprints identify the same report. Empty
// fingerprints never match.
func Matches(a, b string) bool {
	return a != "" && a == b
}

func accountSignals(doc canonical.Node) []string {
	var list canonical.Node
	found := false
	for _, p := range AccountPaths {
		v, ok := canonical.Resolve(doc, p)
		if ok && v.Kind() == canonical.KindArray {
			list, found = v, true
			break
		}
	}
	if !found {
		return nil
	}

	entries := list.Elements()
	if len(entries) > MaxAccounts {
		entries = entries[:MaxAccounts]
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		fields := make([]string, 0, len(AccountFields))
		for _, f := range AccountFields {
			if v, ok := normalizedString(e, f); ok {
				fields = append(fields, v)
			}
		}
		if len(fields) == 0 {
			continue
		}
		out = append(out, strings.Join(fields, "|"))
	}
	sort.Strings(out)
	return out
}

func normalizedString(n canonical.Node, path string) (string, bool) {
	v, ok := canonical.Resolve(n, path)
	if !ok {
		return "", false
	}
	s, ok := v.AsString()
	if !ok {
		return "", false
	}
	norm := normalization.Collapse(s)
	return norm, norm != ""
}
