package vturesults

import "strings"

// invalidCaptchaMarker is the literal message the portal embeds in the
// response when it rejects the submitted captcha text.
const invalidCaptchaMarker = "Invalid captcha code !!!"

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeInvalidCaptcha
	OutcomeOtherFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeInvalidCaptcha:
		return "invalid-captcha"
	default:
		return "other-failure"
	}
}

// Classify inspects a submission response body. Only the known
// invalid-captcha marker is treated as a rejection; any other body is
// passed through as success so an unrecognized server message is never
// silently swallowed. The payload may still carry an application-level
// error ("no such lookup id"), interpreting it is the caller's concern.
func Classify(body string) Outcome {
	if strings.Contains(body, invalidCaptchaMarker) {
		return OutcomeInvalidCaptcha
	}
	return OutcomeSuccess
}
