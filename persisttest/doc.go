// Package persisttest provides a backend-agnostic contract suite for record
// stores. Store implementations call RunStoreContract from their tests.
package persisttest
