package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgInternalServerError = "Internal server error"
	msgForbidden           = "You do not have permission to access this resource."
	msgWrongCredentials    = "Invalid email or password"
	msgTooManyRequests     = "Too many requests, please try again later"
)

// Err is the body of every error response.
type Err struct {
	Err error `json:"-"`

	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
	Message    string `json:"message"`
}

func (e *Err) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return e.Message
}

func (e *Err) Unwrap() error {
	return e.Err
}

// RenderErr fills the request dependent fields and writes e. Server errors are logged.
func RenderErr(ctx *gin.Context, e *Err) {
	e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	e.Path = ctx.Request.URL.Path

	if e.StatusCode >= http.StatusInternalServerError {
		zap.L().Error(e.Message,
			zap.String("request_id", requestid.Get(ctx)),
			zap.String("method", ctx.Request.Method),
			zap.String("path", e.Path),
			zap.Error(e.Err),
		)
	}

	if e.Err != nil {
		_ = ctx.Error(e.Err)
	}
	ctx.AbortWithStatusJSON(e.StatusCode, e)
}

func ErrBadRequest(err error) *Err {
	return newErr(http.StatusBadRequest, err, sentence(err.Error()))
}

func ErrNotFound(format string, args ...any) *Err {
	msg := fmt.Sprintf(format, args...)
	return newErr(http.StatusNotFound, errors.New(msg), msg)
}

func ErrConflict(err error) *Err {
	return newErr(http.StatusConflict, err, sentence(err.Error()))
}

func ErrUnauthorized(err error) *Err {
	return newErr(http.StatusUnauthorized, err, "Unauthorized")
}

func ErrWrongCredentials(err error) *Err {
	return newErr(http.StatusUnauthorized, err, msgWrongCredentials)
}

func ErrPermissionDenied(err error) *Err {
	return newErr(http.StatusForbidden, err, msgForbidden)
}

func ErrTooManyRequests() *Err {
	return newErr(http.StatusTooManyRequests, nil, msgTooManyRequests)
}

func ErrInternalServerError(err error) *Err {
	return newErr(http.StatusInternalServerError, err, msgInternalServerError)
}

// ErrInternalServerErrorMsg answers 500 with a caller chosen message.
func ErrInternalServerErrorMsg(err error, msg string) *Err {
	return newErr(http.StatusInternalServerError, err, msg)
}

func newErr(status int, err error, msg string) *Err {
	return &Err{
		Err:        err,
		StatusCode: status,
		Message:    msg,
	}
}

// sentence drops the "caller -> " chain of a wrapped error and upper-cases the first
// letter of what is left.
func sentence(s string) string {
	if i := strings.LastIndex(s, " -> "); i >= 0 {
		s = s[i+len(" -> "):]
	}
	if s == "" {
		return s
	}

	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])

	return strings.TrimSpace(string(r))
}
