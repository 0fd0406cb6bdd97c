package wizard

import (
	"errors"
	"net/http"

	"github.com/tbxark/formwizard/patch"
)

var (
	ErrStepOutOfRange   = errors.New("step out of range")
	ErrStepLocked       = errors.New("step cannot be reached before earlier steps are complete")
	ErrFirstStep        = errors.New("already on the first step")
	ErrLastStep         = errors.New("already on the last step, submit instead")
	ErrSubmitted        = errors.New("application already submitted, reset to start over")
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrIncomplete       = errors.New("application is incomplete")
	ErrNotLastStep      = errors.New("the application can only be submitted from the last step")
	ErrUnknownField     = errors.New("unknown field")
	ErrFieldType        = errors.New("value has the wrong type for field")
)

// Kind names the class of a controller error for API clients.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStepOutOfRange):
		return "step_out_of_range"
	case errors.Is(err, ErrStepLocked):
		return "step_locked"
	case errors.Is(err, ErrFirstStep):
		return "first_step"
	case errors.Is(err, ErrLastStep):
		return "last_step"
	case errors.Is(err, ErrSubmitted):
		return "submitted"
	case errors.Is(err, ErrSubmitInProgress):
		return "submit_in_progress"
	case errors.Is(err, ErrIncomplete):
		return "incomplete"
	case errors.Is(err, ErrNotLastStep):
		return "not_last_step"
	case errors.Is(err, ErrUnknownField):
		return "unknown_field"
	case errors.Is(err, ErrFieldType), errors.Is(err, patch.ErrTypeMismatch):
		return "field_type"
	case errors.Is(err, patch.ErrPathNotAllowed):
		return "path_not_allowed"
	default:
		return "internal"
	}
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnknownField):
		return http.StatusNotFound
	case errors.Is(err, ErrStepOutOfRange),
		errors.Is(err, ErrFieldType),
		errors.Is(err, patch.ErrTypeMismatch),
		errors.Is(err, patch.ErrPathNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, ErrStepLocked),
		errors.Is(err, ErrFirstStep),
		errors.Is(err, ErrLastStep),
		errors.Is(err, ErrSubmitted),
		errors.Is(err, ErrSubmitInProgress),
		errors.Is(err, ErrIncomplete),
		errors.Is(err, ErrNotLastStep):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
