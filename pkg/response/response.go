// Package response defines the JSON envelope shared by every API endpoint.
// Code is 0 on success; on failure it mirrors the HTTP status.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AppError carries an HTTP status alongside a client-safe message so
// services can shape the response without importing gin.
type AppError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func newAppError(status int, msg string) *AppError {
	return &AppError{HTTPStatus: status, Code: status, Message: msg}
}

func NewBadRequest(msg string) *AppError   { return newAppError(http.StatusBadRequest, msg) }
func NewUnauthorized(msg string) *AppError { return newAppError(http.StatusUnauthorized, msg) }
func NewForbidden(msg string) *AppError    { return newAppError(http.StatusForbidden, msg) }
func NewNotFound(msg string) *AppError     { return newAppError(http.StatusNotFound, msg) }
func NewConflict(msg string) *AppError     { return newAppError(http.StatusConflict, msg) }
func NewServerError(msg string) *AppError {
	return newAppError(http.StatusInternalServerError, msg)
}

// Success writes a 200 envelope wrapping data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "ok", Data: data})
}

// Created writes a 201 envelope wrapping data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// Error maps an *AppError onto its status; anything else becomes a 500.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{Code: appErr.Code, Message: appErr.Message})
		return
	}
	fail(c, http.StatusInternalServerError, err.Error())
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Code: status, Message: msg})
}

func BadRequest(c *gin.Context, msg string)   { fail(c, http.StatusBadRequest, msg) }
func Unauthorized(c *gin.Context, msg string) { fail(c, http.StatusUnauthorized, msg) }
func Forbidden(c *gin.Context, msg string)    { fail(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)     { fail(c, http.StatusNotFound, msg) }
func ServerError(c *gin.Context, msg string) {
	fail(c, http.StatusInternalServerError, msg)
}
