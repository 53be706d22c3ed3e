// Package aggregates defines the error taxonomy shared by every write
// boundary. Codes are transport agnostic; the HTTP layer maps them to
// status codes.
package aggregates
