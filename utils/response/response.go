package response

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leadscout/leadscout/utils/validation"
)

// Response is the envelope every JSON endpoint replies with. Success
// responses carry Data, failures carry Error; clients switch on Success.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failure. Code is a stable machine-readable
// constant; Fields carries per-field validation messages when present.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// PaginationMeta describes one page of a list response.
type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
}

// PaginatedResponse wraps a list payload with its pagination metadata.
type PaginatedResponse struct {
	Success    bool           `json:"success"`
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// ok is the single path every success helper goes through.
func ok(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Success returns a 200 with data.
func Success(c *fiber.Ctx, data interface{}) error {
	return ok(c, fiber.StatusOK, "", data)
}

// SuccessWithMessage returns a 200 with a human-readable message and data.
func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return ok(c, fiber.StatusOK, message, data)
}

// Created returns a 201 for newly created resources.
func Created(c *fiber.Ctx, data interface{}) error {
	return ok(c, fiber.StatusCreated, "Resource created successfully", data)
}

// Paginated returns a 200 list response with pagination metadata.
func Paginated(c *fiber.Ctx, data interface{}, pagination PaginationMeta) error {
	return c.Status(fiber.StatusOK).JSON(PaginatedResponse{
		Success:    true,
		Data:       data,
		Pagination: pagination,
	})
}

// fail is the single path every error helper goes through.
func fail(c *fiber.Ctx, status int, detail *ErrorDetail) error {
	return c.Status(status).JSON(Response{
		Success: false,
		Error:   detail,
	})
}

// failCode covers the common case of a bare code and message.
func failCode(c *fiber.Ctx, status int, code, message, fallback string) error {
	if message == "" {
		message = fallback
	}
	return fail(c, status, &ErrorDetail{Code: code, Message: message})
}

// BadRequest returns a 400 Bad Request response.
func BadRequest(c *fiber.Ctx, message string) error {
	return failCode(c, fiber.StatusBadRequest, "BAD_REQUEST", message, "Bad request")
}

// Unauthorized returns a 401 Unauthorized response.
func Unauthorized(c *fiber.Ctx, message string) error {
	return failCode(c, fiber.StatusUnauthorized, "UNAUTHORIZED", message, "Unauthorized access")
}

// Forbidden returns a 403 Forbidden response.
func Forbidden(c *fiber.Ctx, message string) error {
	return failCode(c, fiber.StatusForbidden, "FORBIDDEN", message, "Access forbidden")
}

// NotFound returns a 404 Not Found response.
func NotFound(c *fiber.Ctx, message string) error {
	return failCode(c, fiber.StatusNotFound, "NOT_FOUND", message, "Resource not found")
}

// Conflict returns a 409 Conflict response.
func Conflict(c *fiber.Ctx, message string) error {
	return failCode(c, fiber.StatusConflict, "CONFLICT", message, "Conflict")
}

// TooManyRequests returns a plain 429 Too Many Requests response.
func TooManyRequests(c *fiber.Ctx, message string) error {
	return failCode(c, fiber.StatusTooManyRequests, "TOO_MANY_REQUESTS", message, "Too many requests")
}

// LimitExceeded returns a 429 carrying quota context (remaining, reset time)
// alongside the error so clients can render an upgrade prompt.
func LimitExceeded(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(Response{
		Success: false,
		Data:    data,
		Error: &ErrorDetail{
			Code:    "TOO_MANY_REQUESTS",
			Message: message,
		},
	})
}

// ValidationError returns a 422 with one message per failed field.
func ValidationError(c *fiber.Ctx, err error) error {
	detail := &ErrorDetail{
		Code:    "VALIDATION_ERROR",
		Message: "Validation failed",
	}
	if fields := validation.FormatValidationErrors(err); len(fields) > 0 {
		detail.Fields = fields
	} else {
		detail.Details = err.Error()
	}
	return fail(c, fiber.StatusUnprocessableEntity, detail)
}

// InternalServerError returns a 500 Internal Server Error response.
func InternalServerError(c *fiber.Ctx, message string) error {
	return failCode(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", message, "Internal server error")
}

// ServiceUnavailable returns a 503 Service Unavailable response.
func ServiceUnavailable(c *fiber.Ctx, message string) error {
	return failCode(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message, "Service temporarily unavailable")
}

// CalculatePagination derives pagination metadata from page, limit and the
// total row count, clamping out-of-range inputs.
func CalculatePagination(page, limit int, total int64) PaginationMeta {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	// Ceiling division.
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return PaginationMeta{
		CurrentPage: page,
		PerPage:     limit,
		Total:       total,
		TotalPages:  totalPages,
	}
}
