package upstream

import (
	"strings"

	dErrors "coopgate/pkg/domain-errors"
)

// User-facing messages for submission outcomes. The two known backend error
// patterns get fixed, human-readable messages instead of the raw server text.
const (
	MsgAlreadyRegistered = "A member with this phone number is already registered."
	MsgUnknownGroup      = "The selected cooperative group could not be found. Please choose another group."
	MsgConnectivity      = "Could not reach the registration service. Please check your connection and try again."
	MsgSubmissionFailed  = "Registration failed. Please try again."
)

// mapRejection converts a non-2xx upstream response body into a domain error
// with a user-facing message. Known substrings are pattern-matched first; any
// other server text is surfaced verbatim.
func mapRejection(serverText string) error {
	switch {
	case strings.Contains(serverText, "already registered"):
		return dErrors.New(dErrors.CodeConflict, MsgAlreadyRegistered)
	case strings.Contains(serverText, "CooperativeGroup"):
		return dErrors.New(dErrors.CodeUpstreamRejected, MsgUnknownGroup)
	case serverText != "":
		return dErrors.New(dErrors.CodeUpstreamRejected, serverText)
	default:
		return dErrors.New(dErrors.CodeUpstreamRejected, MsgSubmissionFailed)
	}
}

// mapTransportFailure converts a no-response network error into the generic
// connectivity message.
func mapTransportFailure(err error) error {
	return dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, MsgConnectivity)
}
