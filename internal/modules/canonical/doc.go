// Package canonical translates provider-specific report documents into the
// canonical field vocabulary.
//
// A parsed document is modelled as a Node tree. Mappings pair a source path
// expression with a canonical field definition:
//
//	CREDIT_RESPONSE.BORROWER.FirstName        -> first_name (string)
//	CREDIT_LIABILITY[*].CreditLiabilityUnpaidBalanceAmount -> first_balance (decimal)
//
// Path syntax:
//   - Dotted keys: "a.b.c"
//   - Wildcard arrays: "items[*].name" returns the first non-null match across elements
//   - Numeric index segments: "items.2.name"
//   - A plain key whose value is an array descends into the first element when
//     more segments follow ("items.name" behaves like "items.0.name")
//
// Every function in this package is pure and safe for concurrent use.
package canonical
