package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/apperr"
)

// writeError maps err to a status code and writes a {"code","message"} body.
// Errors outside the apperr taxonomy are logged and reported as 500.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := http.StatusText(status)

	var appErr *apperr.Error
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusUnauthorized
	default:
		zctx.From(c.Request.Context()).Error("Request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	if status != http.StatusInternalServerError {
		message = http.StatusText(status)
		if errors.As(err, &appErr) && appErr.Message != "" {
			message = appErr.Message
		}
	}

	_ = c.Error(err)
	c.Abort()
	writeJSON(c, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// bindingError converts a gin binding failure into a BadRequest naming the
// offending field.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.BadRequest("Invalid request: " + err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.BadRequest(strings.Join(msgs, ", "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%q must be greater than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%q must be at least %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%q must be a valid email", field)
	default:
		return fmt.Sprintf("%q is invalid", field)
	}
}

// fieldPath strips the request struct name from the namespace, so nested
// fields read as "customer.name" or "products[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func writeJSON(c *gin.Context, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	c.Data(status, "application/json; charset=utf-8", e.Bytes())
}
