package http

import (
	"errors"
	"net/http"

	"paytrack/internal/core"
	"paytrack/internal/log"
)

// errorResponse classifies err into a status code and JSON body.
func errorResponse(err error) (*ResponseBuilder, bool) {
	var (
		verr    *core.ValidationError
		missing *core.MissingColumnsError
		tooBig  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		return NewResponse().Status(http.StatusBadRequest).JSON(ErrorBody{
			Error:   "validation_error",
			Message: "request validation failed",
			Fields:  verr.Fields,
		}), true
	case errors.As(err, &missing):
		return NewResponse().Status(http.StatusBadRequest).JSON(ErrorBody{
			Error:   "missing_columns",
			Message: missing.Error(),
			Columns: missing.Columns,
		}), true
	case errors.Is(err, core.ErrInvalidRange):
		return ErrorResponse(http.StatusBadRequest, "invalid_range", err.Error()), true
	case errors.Is(err, core.ErrEmptyFile):
		return ErrorResponse(http.StatusBadRequest, "empty_file", "the file has no data rows"), true
	case errors.Is(err, core.ErrNoRowsSelected):
		return ErrorResponse(http.StatusBadRequest, "no_rows_selected", "select at least one valid row to import"), true
	case errors.Is(err, core.ErrSessionExpired):
		return ErrorResponse(http.StatusNotFound, "session_expired", "upload session expired or not found, upload the file again"), true
	case errors.Is(err, core.ErrNotFound):
		return ErrorResponse(http.StatusNotFound, "not_found", "record not found"), true
	case errors.Is(err, core.ErrUnauthenticated):
		return ErrorResponse(http.StatusUnauthorized, "unauthenticated", "authentication required"), true
	case errors.As(err, &tooBig):
		return ErrorResponse(http.StatusRequestEntityTooLarge, "file_too_large", "upload exceeds the size limit"), true
	default:
		return InternalServerError(), false
	}
}

// writeError writes the classified error; unexpected errors are logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp, expected := errorResponse(err)
	if !expected {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err.Error())
	}
	resp.Write(w)
}
