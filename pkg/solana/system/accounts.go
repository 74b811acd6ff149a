// Package system exposes the well-known system program account referenced
// by instructions that create or fund accounts via CPI.
package system

// 11111111111111111111111111111111
var ProgramKey [32]byte
