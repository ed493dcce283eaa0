package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trivia-quiz-service/internal/domain"
)

// ErrCode identifies an API error independently of its message.
type ErrCode string

const (
	ErrValidation        ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload    ErrCode = "INVALID_PAYLOAD"
	ErrSourceUnavailable ErrCode = "SOURCE_UNAVAILABLE"
	ErrSessionNotFound   ErrCode = "SESSION_NOT_FOUND"
	ErrSessionNotActive  ErrCode = "SESSION_NOT_ACTIVE"
	ErrInvalidNavigation ErrCode = "INVALID_NAVIGATION"
	ErrInvalidOption     ErrCode = "INVALID_OPTION"
	ErrReportNotFound    ErrCode = "REPORT_NOT_FOUND"
	ErrInternal          ErrCode = "INTERNAL_ERROR"
)

// retryAfterSeconds is advertised when the question source is unavailable.
const retryAfterSeconds = "5"

func message(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrSourceUnavailable:
		return "Failed to load quiz questions. Please try again."
	case ErrSessionNotFound:
		return "Quiz session not found."
	case ErrSessionNotActive:
		return "This quiz session is no longer in progress."
	case ErrInvalidNavigation:
		return "Question index is out of range."
	case ErrInvalidOption:
		return "Option index is out of range."
	case ErrReportNotFound:
		return "No quiz submission found for this session."
	default:
		return "An unexpected error occurred."
	}
}

// Response is the API envelope.
type Response struct {
	Data     interface{} `json:"data"`
	Error    *ErrorBody  `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

const contextKeyRequestID = "request_id"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(contextKeyRequestID, reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Data: data, Metadata: buildMetadata(c)})
}

func fail(c *gin.Context, status int, code ErrCode, fields map[string]string) {
	c.JSON(status, Response{
		Error:    &ErrorBody{Code: code, Message: message(code), Fields: fields},
		Metadata: buildMetadata(c),
	})
}

// failErr maps a domain error onto its HTTP status and code.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidUser):
		fail(c, http.StatusBadRequest, ErrValidation, map[string]string{"email": "email must be a valid email address"})
	case errors.Is(err, domain.ErrSourceUnavailable):
		c.Header("Retry-After", retryAfterSeconds)
		fail(c, http.StatusServiceUnavailable, ErrSourceUnavailable, nil)
	case errors.Is(err, domain.ErrSessionNotFound):
		fail(c, http.StatusNotFound, ErrSessionNotFound, nil)
	case errors.Is(err, domain.ErrSubmissionNotFound):
		fail(c, http.StatusNotFound, ErrReportNotFound, nil)
	case errors.Is(err, domain.ErrSessionNotActive):
		fail(c, http.StatusConflict, ErrSessionNotActive, nil)
	case errors.Is(err, domain.ErrInvalidNavigation):
		fail(c, http.StatusUnprocessableEntity, ErrInvalidNavigation, nil)
	case errors.Is(err, domain.ErrOptionNotFound):
		fail(c, http.StatusUnprocessableEntity, ErrInvalidOption, nil)
	default:
		fail(c, http.StatusInternalServerError, ErrInternal, nil)
	}
}

func buildMetadata(c *gin.Context) Metadata {
	id := c.GetString(contextKeyRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	return Metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
