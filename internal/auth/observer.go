package auth

// Outcome labels reported to an Observer.
const (
	OutcomeSuccess       = "success"
	OutcomeUnknownEmail  = "unknown_email"
	OutcomeWrongPassword = "wrong_password"
	OutcomeAlreadyExists = "already_exists"
	OutcomeInvalid       = "invalid"
	OutcomeError         = "error"

	ReasonMissing          = "missing"
	ReasonMalformedHeader  = "malformed_header"
	ReasonInvalidSignature = "invalid_signature"
	ReasonExpired          = "expired"
	ReasonMalformedClaims  = "malformed_claims"
	ReasonUnknownSubject   = "unknown_subject"
)

// Observer receives authentication outcomes, typically to count them.
type Observer interface {
	LoginAttempt(outcome string)
	Registration(outcome string)
	TokenRejected(reason string)
}

type NopObserver struct{}

func (NopObserver) LoginAttempt(string)  {}
func (NopObserver) Registration(string)  {}
func (NopObserver) TokenRejected(string) {}
