package model

// ErrorCode is a backend-reported diagram error code.
type ErrorCode string

const (
	CodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	CodeInvalidOpts   ErrorCode = "INVALID_OPTIONS"
	CodeQuery         ErrorCode = "QUERY_ERROR"
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
	CodeTimeout       ErrorCode = "TIMEOUT_ERROR"
	CodeGitHubAPI     ErrorCode = "GITHUB_API_ERROR"
	CodeUnknown       ErrorCode = "UNKNOWN_ERROR"
)

// Remediation is the user-facing action suggested for a backend error code.
type Remediation string

const (
	RemediationDismiss        Remediation = "dismiss"
	RemediationSettings       Remediation = "settings"
	RemediationRetry          Remediation = "retry"
	RemediationRetryAndReport Remediation = "retry_and_report"
)

// codeRemediations maps each known backend error code to its remediation.
// Unmapped codes fall back to a generic retry prompt.
var codeRemediations = map[ErrorCode]Remediation{
	CodeConfiguration: RemediationSettings,
	CodeInvalidOpts:   RemediationDismiss,
	CodeQuery:         RemediationRetry,
	CodeInternal:      RemediationRetryAndReport,
	CodeTimeout:       RemediationRetry,
	CodeGitHubAPI:     RemediationSettings,
	CodeUnknown:       RemediationRetryAndReport,
}

// codeMessages maps each known backend error code to a user-facing message.
var codeMessages = map[ErrorCode]string{
	CodeConfiguration: "The diagram backend is not configured for this project.",
	CodeInvalidOpts:   "The requested diagram options are not valid.",
	CodeQuery:         "The backend could not query the project data.",
	CodeInternal:      "The diagram backend hit an internal error.",
	CodeTimeout:       "Diagram generation timed out.",
	CodeGitHubAPI:     "The GitHub API request failed.",
	CodeUnknown:       "Diagram generation failed for an unknown reason.",
}

// RemediationFor returns the remediation action for a backend error code.
func RemediationFor(code ErrorCode) Remediation {
	if r, ok := codeRemediations[code]; ok {
		return r
	}
	return RemediationRetry
}

// MessageFor returns the user-facing message for a backend error code.
func MessageFor(code ErrorCode) string {
	if m, ok := codeMessages[code]; ok {
		return m
	}
	return "Diagram generation failed. Try again."
}

// BackendError is a domain error reported by the diagram backend, carrying
// the machine-readable code alongside the backend's own message.
type BackendError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *BackendError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Remediation returns the suggested user-facing action for this error.
func (e *BackendError) Remediation() Remediation {
	return RemediationFor(e.Code)
}
