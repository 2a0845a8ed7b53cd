// Package core defines the shared language of the leapdbml compiler.
//
// This package contains:
//   - Arena identifiers (NodeID, SymbolID) and the per-compilation IDGenerator
//   - The closed diagnostic taxonomy (ErrorCode, Category)
//   - Diagnostics and the error-accumulating Report used to chain stages
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
