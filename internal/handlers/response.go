package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/dormguard-backend/internal/pkg/errors"
	"github.com/yungbote/dormguard-backend/internal/services"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	NextDate  string `json:"next_date,omitempty"`
	DaysUntil int    `json:"days_until,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps domain sentinels onto HTTP statuses. Gate denials
// additionally carry the next submission opportunity so clients can show a
// countdown.
func RespondServiceError(c *gin.Context, err error) {
	var gateErr *services.GateDeniedError
	if errors.As(err, &gateErr) {
		apiErr := APIError{
			Message: gateErr.Reason,
			Code:    "submission_window_closed",
		}
		if gateErr.NextDate != nil {
			apiErr.NextDate = gateErr.NextDate.Format("2006-01-02")
			apiErr.DaysUntil = gateErr.DaysUntil
		}
		c.JSON(http.StatusForbidden, ErrorEnvelope{Error: apiErr})
		return
	}
	switch {
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, pkgerrors.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrDuplicateSubmission):
		RespondError(c, http.StatusConflict, "already_passed", err)
	case errors.Is(err, services.ErrNoFailedRecord):
		RespondError(c, http.StatusConflict, "no_failed_record", err)
	case errors.Is(err, pkgerrors.ErrConflict):
		RespondError(c, http.StatusConflict, "conflict", err)
	case errors.Is(err, services.ErrGateDenied):
		RespondError(c, http.StatusForbidden, "submission_window_closed", err)
	case errors.Is(err, services.ErrOracleFailure):
		RespondError(c, http.StatusBadGateway, "scoring_unavailable", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
