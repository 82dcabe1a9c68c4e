package response

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"helpinghands/internal/contextutils"
	"helpinghands/internal/services"
	"helpinghands/internal/validation"
)

// ===============================
// RESPONSE CONFIGURATION
// ===============================

// Config holds configuration for the response system
type Config struct {
	PrettyJSON       bool   `json:"pretty_json"`
	IncludeRequestID bool   `json:"include_request_id"`
	IncludeTimestamp bool   `json:"include_timestamp"`
	APIVersion       string `json:"api_version"`

	// MaskInternalErrors hides the message of INTERNAL_ERROR responses
	MaskInternalErrors bool `json:"mask_internal_errors"`

	// MaxBodyBytes bounds DecodeJSON request bodies
	MaxBodyBytes int64 `json:"max_body_bytes"`
}

// DefaultConfig returns production-ready response configuration
func DefaultConfig() *Config {
	return &Config{
		PrettyJSON:         false,
		IncludeRequestID:   true,
		IncludeTimestamp:   true,
		APIVersion:         "v1",
		MaskInternalErrors: true,
		MaxBodyBytes:       1 << 20,
	}
}

// ===============================
// RESPONSE TYPES
// ===============================

// APIResponse represents a standardized API response
type APIResponse struct {
	Success   bool         `json:"success"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp int64        `json:"timestamp,omitempty"`
	Version   string       `json:"version,omitempty"`
}

// ErrorDetail represents error information in API responses
type ErrorDetail struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Fields  []FieldError           `json:"fields,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// FieldError represents field-specific validation errors
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ===============================
// RESPONSE BUILDER
// ===============================

// Builder helps construct standardized responses
type Builder struct {
	config *Config
	logger *zap.Logger
	now    func() time.Time
}

// NewBuilder creates a new response builder
func NewBuilder(config *Config, logger *zap.Logger) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Success creates a successful API response
func (b *Builder) Success(ctx context.Context, data interface{}) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		RequestID: b.getRequestID(ctx),
		Timestamp: b.getTimestamp(),
		Version:   b.config.APIVersion,
	}
}

// Error creates an error response from a service error
func (b *Builder) Error(ctx context.Context, err error) *APIResponse {
	detail := b.convertError(err)
	b.logError(ctx, err, detail)

	return &APIResponse{
		Success:   false,
		Error:     detail,
		RequestID: b.getRequestID(ctx),
		Timestamp: b.getTimestamp(),
		Version:   b.config.APIVersion,
	}
}

// ===============================
// HTTP RESPONSE WRITERS
// ===============================

// WriteJSON writes a JSON response with appropriate headers
func (b *Builder) WriteJSON(w http.ResponseWriter, r *http.Request, response *APIResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if statusCode >= 400 {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	}
	w.WriteHeader(statusCode)

	encoder := json.NewEncoder(w)
	if b.config.PrettyJSON {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(response); err != nil {
		b.logger.Error("Failed to encode JSON response",
			zap.Error(err),
			zap.String("request_id", b.getRequestID(r.Context())),
		)
	}
}

// WriteSuccess writes a 200 response
func (b *Builder) WriteSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusOK)
}

// WriteCreated writes a 201 response
func (b *Builder) WriteCreated(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusCreated)
}

// WriteError writes an error response with the status code of its kind
func (b *Builder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	b.WriteJSON(w, r, b.Error(r.Context(), err), StatusCode(err))
}

// DecodeJSON reads a JSON request body into dst. Unknown fields are
// rejected; failures come back as VALIDATION_ERROR.
func (b *Builder) DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return services.NewValidationError("request body is required", nil)
	}

	body := io.LimitReader(r.Body, b.config.MaxBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return services.NewValidationError("request body is required", err)
		}
		return services.NewValidationError("invalid request body format", err)
	}
	return nil
}

// StatusCode maps an error to its HTTP status
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return services.GetServiceError(err).GetStatusCode()
}

// ===============================
// UTILITY METHODS
// ===============================

func (b *Builder) convertError(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	serviceErr := services.GetServiceError(err)
	detail := &ErrorDetail{
		Type:    serviceErr.Type,
		Message: serviceErr.Message,
		Code:    serviceErr.Code,
	}

	for key, value := range serviceErr.Details {
		if key == "fields" {
			if fields, ok := value.([]validation.FieldError); ok {
				detail.Fields = convertFields(fields)
				continue
			}
		}
		if detail.Details == nil {
			detail.Details = make(map[string]interface{})
		}
		detail.Details[key] = value
	}

	if b.config.MaskInternalErrors && serviceErr.Type == services.ErrTypeInternal {
		detail.Message = "An internal error occurred"
		detail.Details = nil
	}

	return detail
}

func convertFields(fields []validation.FieldError) []FieldError {
	out := make([]FieldError, len(fields))
	for i, f := range fields {
		message := "failed validation: " + f.Tag
		if f.Param != "" {
			message += "=" + f.Param
		}
		out[i] = FieldError{
			Field:   f.Field,
			Message: message,
			Code:    f.Tag,
		}
	}
	return out
}

func (b *Builder) getRequestID(ctx context.Context) string {
	if !b.config.IncludeRequestID {
		return ""
	}
	return contextutils.GetRequestID(ctx)
}

func (b *Builder) getTimestamp() int64 {
	if !b.config.IncludeTimestamp {
		return 0
	}
	return b.now().Unix()
}

// logError logs at a level matching the error kind
func (b *Builder) logError(ctx context.Context, err error, detail *ErrorDetail) {
	logger := contextutils.GetLogger(ctx, b.logger)
	fields := []zap.Field{
		zap.String("error_type", detail.Type),
		zap.String("error_code", detail.Code),
		zap.String("error_message", detail.Message),
	}

	switch detail.Type {
	case services.ErrTypeInternal:
		logger.Error("Internal error", append(fields, zap.Error(err))...)
	case services.ErrTypeValidation, services.ErrTypeInvalidState, services.ErrTypeConflict:
		logger.Warn("Request error", fields...)
	default:
		logger.Info("Request completed with error", fields...)
	}
}
