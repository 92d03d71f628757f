// Package errors provides the classified error primitives used across next2gas.
//
// Every failure that leaves a pipeline stage is classified according to the
// bundle taxonomy so the CLI can choose an exit code and decide how much of the
// underlying diagnostic to print:
//   - ErrorCategory: input, config, external_tool, derivation, asset_integrity, ...
//   - ErrorSeverity: fatal, error, warning, info
//   - ClassifiedError: structured error with category, severity, and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit code selection and user-facing formatting
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryAssetIntegrity, "asset has no encoded sidecar").
//		WithContext("reference", ref).
//		WithCause(statErr).
//		Build()
package errors
