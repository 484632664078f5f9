package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func fieldError(field, message string) map[string][]string {
	return map[string][]string{field: {message}}
}

// respondError maps service errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	var nf *service.NotFoundError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Message, Errors: fieldError(verr.Field, verr.Message)})
	case errors.As(err, &nf):
		resp := ErrorResponse{Error: nf.Error()}
		if nf.Field != "" {
			resp.Errors = fieldError(nf.Field, "Object with this id does not exist.")
		}
		c.JSON(http.StatusNotFound, resp)
	case errors.Is(err, service.ErrWrongPassword):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:  "wrong password",
			Errors: fieldError("current_password", "Wrong password."),
		})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unable to log in with provided credentials"})
	case errors.Is(err, service.ErrTokenRevoked):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// respondBindError reports a request body that could not be bound.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Errors: validation.FieldErrors(verrs)})
	case errors.As(err, &typeErr) && typeErr.Field != "":
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "validation failed",
			Errors: fieldError(typeErr.Field, "Expected "+typeErr.Type.String()+"."),
		})
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed JSON body"})
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
}

// pathID parses the :id parameter; an invalid id answers 404.
func pathID(c *gin.Context, resource string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
		return 0, false
	}
	return uint(id), true
}
