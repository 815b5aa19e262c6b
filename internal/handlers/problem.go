package handlers

import (
	"context"
	"errors"

	"github.com/KakraGeek/churchsuitegh/internal/auth"
	"github.com/KakraGeek/churchsuitegh/internal/checkin"
	"github.com/danielgtaylor/huma/v2"
)

// problem turns a service failure into an RFC 7807 response. The kind is
// passed along as an error detail so kiosks can pick their banner.
func problem(err error) error {
	var ce *checkin.Error
	if !errors.As(err, &ce) {
		return huma.Error500InternalServerError("Something went wrong, please try again")
	}

	detail := &huma.ErrorDetail{Message: ce.Message, Location: "kind", Value: ce.Kind.String()}
	switch ce.Kind {
	case checkin.KindInvalidInput:
		return huma.Error400BadRequest(ce.Message, detail)
	case checkin.KindNotFound:
		return huma.Error404NotFound(ce.Message, detail)
	case checkin.KindExpired, checkin.KindInactive, checkin.KindLimitReached:
		return huma.Error422UnprocessableEntity(ce.Message, detail)
	case checkin.KindConflict:
		return huma.Error409Conflict(ce.Message, detail)
	default:
		return huma.Error500InternalServerError(ce.Message, detail)
	}
}

// staffOnly authorizes the caller and requires the staff role.
func staffOnly(ctx context.Context, a *auth.AuthHandler, in auth.AuthInput) (uint, error) {
	userID, err := a.Authorize(ctx, in)
	if err != nil {
		return 0, err
	}
	if err := a.RequireStaff(ctx, userID); err != nil {
		return 0, err
	}
	return userID, nil
}
