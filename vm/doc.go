// Package vm implements the Fennec virtual machine core.
//
// This package contains:
//   - Tagged value representation and the closed type enumeration
//   - Instruction stream decoding over int32 code words
//   - Native segment extraction for runs of validated instructions
//   - Bound function tables for validated dispatch
//   - Resumable execution state for functions suspended at await points
package vm
