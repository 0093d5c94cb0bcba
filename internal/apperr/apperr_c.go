// Package apperr carries the stable error kinds surfaced by the combat core.
package apperr

import "net/http"

// Kind is a machine-readable error kind. Values are part of the API contract.
type Kind string

const (
	KindInternal Kind = "Internal"

	// Precondition kinds
	KindNoActiveShip           Kind = "NoActiveShip"
	KindNotCoLocated           Kind = "NotCoLocated"
	KindInsufficientCredits    Kind = "InsufficientCredits"
	KindTargetCannotMatchWager Kind = "TargetCannotMatchWager"
	KindSelfChallengeForbidden Kind = "SelfChallengeForbidden"
	KindInvalidWager           Kind = "InvalidWager"
	KindInvalidTeamSize        Kind = "InvalidTeamSize"
	KindInvalidComponent       Kind = "InvalidComponent"
	KindAlreadyOwnColony       Kind = "AlreadyOwnColony"
	KindInvalidRequest         Kind = "InvalidRequest"

	// State machine kinds
	KindChallengeExpired        Kind = "ChallengeExpired"
	KindChallengeNotYours       Kind = "ChallengeNotYours"
	KindNotChallengeTarget      Kind = "NotChallengeTarget"
	KindChallengeNotPending     Kind = "ChallengeNotPending"
	KindChallengeAlreadyPending Kind = "ChallengeAlreadyPending"
	KindNotInChallenge          Kind = "NotInChallenge"
	KindTeamFull                Kind = "TeamFull"
	KindDuplicateInvitation     Kind = "DuplicateInvitation"
	KindInvalidSideForInviter   Kind = "InvalidSideForInviter"
	KindInvitationNotPending    Kind = "InvitationNotPending"

	KindSalvageNotAvailable Kind = "SalvageNotAvailable"
	KindNotFound            Kind = "NotFound"
	KindForbidden           Kind = "Forbidden"

	// Transport kinds
	KindUnauthorized Kind = "Unauthorized"
	KindRateLimited  Kind = "RateLimited"
)

// HTTPStatus maps a kind onto the status code the API layer answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindForbidden, KindChallengeNotYours, KindNotChallengeTarget, KindNotInChallenge:
		return http.StatusForbidden
	case KindInvalidRequest, KindInvalidWager, KindInvalidTeamSize, KindInvalidComponent,
		KindSelfChallengeForbidden, KindInvalidSideForInviter:
		return http.StatusBadRequest
	case KindInsufficientCredits, KindTargetCannotMatchWager:
		return http.StatusPaymentRequired
	case KindChallengeExpired:
		return http.StatusGone
	case KindNoActiveShip, KindNotCoLocated, KindAlreadyOwnColony, KindChallengeNotPending,
		KindChallengeAlreadyPending, KindTeamFull, KindDuplicateInvitation,
		KindInvitationNotPending, KindSalvageNotAvailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
