// Package guard implements the portal access guard: the ordered validation pipeline every
// token-scoped route runs before acting on a resource.
//
// Evaluate is a pure function of its inputs. It performs no logging, writes nothing and
// never panics; every failure is reported through the returned Result. Callers translate
// the verdict into a transport outcome and perform side effects only after VerdictValid.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/flowtrade/portal/internal/errors"
	"github.com/flowtrade/portal/internal/portal/domain"
)

// Verdict is the single outcome of a guard evaluation.
type Verdict string

const (
	VerdictValid        Verdict = "valid"
	VerdictNotFound     Verdict = "not_found"
	VerdictTypeMismatch Verdict = "type_mismatch"
	VerdictExpired      Verdict = "expired"
	VerdictRevoked      Verdict = "revoked"
	VerdictInvalidState Verdict = "invalid_state"
	VerdictInternal     Verdict = "internal"
)

// Lookup resolves a presented token and its resource. When required is a concrete type
// the lookup should filter by it and report errors.ErrNotFound for rows of another type.
// An errors.ErrNotFound anywhere in the returned chain means "no such token or resource".
type Lookup[R any] func(ctx context.Context, token string, required domain.TokenType) (*domain.PortalToken, R, error)

// StateCheck inspects the resource's own business state. A non-nil error disqualifies the
// action; its message is reported as the InvalidState reason.
type StateCheck[R any] func(resource R) error

// Result carries the verdict and, once the token was found, the token and resource.
type Result[R any] struct {
	Verdict  Verdict
	Token    *domain.PortalToken
	Resource R
	Reason   string

	cause error
}

// Valid reports whether the token authorizes the action.
func (r Result[R]) Valid() bool {
	return r.Verdict == VerdictValid
}

// TokenFound reports whether evaluation got past the lookup step, i.e. the request is
// attributable to a stored token and must be audited.
func (r Result[R]) TokenFound() bool {
	switch r.Verdict {
	case VerdictNotFound, VerdictTypeMismatch:
		return false
	}
	return r.Token != nil
}

// Err converts the verdict into the domain error taxonomy. It returns nil for VerdictValid.
func (r Result[R]) Err() error {
	switch r.Verdict {
	case VerdictValid:
		return nil
	case VerdictNotFound, VerdictTypeMismatch:
		return domain.ErrTokenNotFound
	case VerdictExpired:
		return domain.ErrTokenExpired
	case VerdictRevoked:
		return domain.ErrTokenRevoked
	case VerdictInvalidState:
		if errors.Is(r.cause, errors.ErrInvalidState) {
			return r.cause
		}
		return domain.StateError(r.Reason)
	default:
		if r.cause != nil {
			return errors.Wrap(r.cause, "portal guard")
		}
		return errors.New("portal guard: internal failure")
	}
}

// Outcome maps the verdict to the access log outcome.
func (r Result[R]) Outcome() domain.Outcome {
	switch r.Verdict {
	case VerdictValid:
		return domain.OutcomeGranted
	case VerdictExpired:
		return domain.OutcomeExpired
	case VerdictRevoked:
		return domain.OutcomeRevoked
	case VerdictInvalidState:
		return domain.OutcomeInvalidState
	default:
		return domain.OutcomeError
	}
}

// Evaluate runs the guard steps in order; the first failing step decides the verdict:
//
//  1. lookup: no row for the token (and type filter) is NotFound, a row of another
//     type than a concrete required type is TypeMismatch, a lookup failure is Internal
//  2. expiresAt <= now is Expired
//  3. revokedAt set is Revoked
//  4. check(resource) failing is InvalidState
//  5. otherwise Valid
//
// A token that is both expired and revoked is reported as Expired. check may be nil.
func Evaluate[R any](
	ctx context.Context,
	token string,
	required domain.TokenType,
	lookup Lookup[R],
	now time.Time,
	check StateCheck[R],
) (result Result[R]) {
	defer func() {
		if p := recover(); p != nil {
			result = Result[R]{Verdict: VerdictInternal, cause: fmt.Errorf("panic: %v", p)}
		}
	}()

	if token == "" {
		return Result[R]{Verdict: VerdictNotFound}
	}

	stored, resource, err := lookup(ctx, token, required)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return Result[R]{Verdict: VerdictNotFound}
		}
		return Result[R]{Verdict: VerdictInternal, cause: err}
	}
	if stored == nil {
		return Result[R]{Verdict: VerdictNotFound}
	}
	if required != domain.TokenTypeAny && stored.TokenType != required {
		return Result[R]{Verdict: VerdictTypeMismatch}
	}

	if stored.IsExpired(now) {
		return Result[R]{Verdict: VerdictExpired, Token: stored, Resource: resource}
	}

	if stored.IsRevoked() {
		return Result[R]{Verdict: VerdictRevoked, Token: stored, Resource: resource}
	}

	if check != nil {
		if err := check(resource); err != nil {
			return Result[R]{
				Verdict:  VerdictInvalidState,
				Token:    stored,
				Resource: resource,
				Reason:   err.Error(),
				cause:    err,
			}
		}
	}

	return Result[R]{Verdict: VerdictValid, Token: stored, Resource: resource}
}
