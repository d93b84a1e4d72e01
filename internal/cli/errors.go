package cli

import "github.com/graphproto/protoql/internal/document"

// CLI-level error codes, reserved in the E0xx band.
const (
	ErrCodeGeneric        = "E001"
	ErrCodeInvalidInput   = "E002"
	ErrCodeCompileFailed  = "E003"
	ErrCodeEndpointFailed = "E004"
	ErrCodeDatabaseError  = "E005"
)

// mapRuntimeErrorCode translates a document.RuntimeErrorCode to the CLI's
// own error-code band, so a JSON-format CLIError always carries one of this
// package's codes rather than leaking the orchestration layer's internal
// vocabulary.
func mapRuntimeErrorCode(code document.RuntimeErrorCode) string {
	switch code {
	case document.ErrCodeInvalidInput:
		return ErrCodeInvalidInput
	case document.ErrCodeEndpointFailure:
		return ErrCodeEndpointFailed
	default:
		return ErrCodeCompileFailed
	}
}
