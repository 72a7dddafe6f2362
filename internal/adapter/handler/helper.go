package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-sync/errors"
	ucerrors "github.com/johnquangdev/meeting-sync/internal/usecase/errors"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Info    string      `json:"info,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get("X-Request-ID")
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusOK, "success", data)
}

// HandleAccepted writes a 202 for work that was taken in
func HandleAccepted(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusAccepted, "accepted", data)
}

func respond(logger *zap.Logger, c echo.Context, status int, message string, data interface{}) error {
	resp := success{
		Code:    errors.ErrorCode_HTTP_OK,
		Message: message,
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := toAppError(err)

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Any("app_code", appErr.Code),
			zap.Error(err),
		)
	}

	info := ""
	if appErr.Raw != nil {
		info = appErr.Raw.Error()
	} else if reason := appErr.Details["reason"]; reason != "" {
		info = reason
	}

	return c.JSON(appErr.HTTPCode, errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Info:    info,
	})
}

// toAppError maps usecase sentinels to their HTTP errors
func toAppError(err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}
	switch {
	case stdErrors.Is(err, ucerrors.ErrRecordNotFound):
		return errors.ErrResourceNotFound("Transcription record not found.")
	case stdErrors.Is(err, ucerrors.ErrMeetingRecordNotFound):
		return errors.ErrResourceNotFound("Transcription record not found for meeting_id.")
	case stdErrors.Is(err, ucerrors.ErrBackfillUnsupported):
		return errors.ErrBackfillNotSupported("Backfill is only supported for fireflies records.")
	case stdErrors.Is(err, ucerrors.ErrBackfillNotAvailable):
		return errors.ErrBackfillNotSupported("FIREFLIES_API_KEY is not configured.")
	case stdErrors.Is(err, ucerrors.ErrPayloadInvalidJSON):
		return errors.ErrInvalidPayload(ucerrors.ErrPayloadInvalidJSON.Error())
	case stdErrors.Is(err, ucerrors.ErrPayloadNotObject):
		return errors.ErrInvalidPayload(ucerrors.ErrPayloadNotObject.Error())
	case stdErrors.Is(err, ucerrors.ErrStorageUnavailable):
		return errors.ErrUnavailable("transcription storage").WithDetail("reason", err.Error())
	}
	return errors.ErrInternal(err)
}
