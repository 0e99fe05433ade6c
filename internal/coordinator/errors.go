package coordinator

import "fmt"

// Code identifies the class of readiness failure surfaced to callers.
type Code string

const (
	// CodeNotAuthenticated means the operation was attempted with no session.
	CodeNotAuthenticated Code = "not_authenticated"
	// CodeWalletTimeout means the wallet-appearance bound elapsed.
	CodeWalletTimeout Code = "wallet_timeout"
	// CodeWalletUnavailable means no embedded wallet was found. Non-fatal;
	// the caller should wait or retry.
	CodeWalletUnavailable Code = "wallet_unavailable"
	// CodeInitializationFailed means the smart-account delegate failed.
	// The delegate's message is passed through verbatim.
	CodeInitializationFailed Code = "initialization_failed"
)

// walletTimeoutMessage is the user-facing message recorded when the
// wallet-appearance bound elapses.
const walletTimeoutMessage = "Timed out waiting for an embedded wallet to become available"

// ReadinessError is the error type returned by coordinator operations.
type ReadinessError struct {
	Code    Code
	Message string
}

func (e *ReadinessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NonFatal reports whether the caller can simply wait and retry without
// clearing error state first.
func (e *ReadinessError) NonFatal() bool {
	return e.Code == CodeWalletUnavailable
}

func errNotAuthenticated() *ReadinessError {
	return &ReadinessError{Code: CodeNotAuthenticated, Message: "no authenticated session"}
}

func errWalletTimeout() *ReadinessError {
	return &ReadinessError{Code: CodeWalletTimeout, Message: walletTimeoutMessage}
}

func errWalletUnavailable() *ReadinessError {
	return &ReadinessError{Code: CodeWalletUnavailable, Message: "no embedded wallet available yet"}
}

func errInitializationFailed(cause error) *ReadinessError {
	return &ReadinessError{Code: CodeInitializationFailed, Message: cause.Error()}
}
