package handlers

import (
	"errors"
	"net/http"

	"triagent/internal/llm"
	"triagent/internal/services"
)

// ErrorResponse 统一错误响应结构
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusForError 内部错误到 HTTP 状态码的映射。
// Provider 错误正常情况下在 classify/summarize 阶段就被吞掉，
// 这里的 503 只是防御性兜底。
func statusForError(err error) int {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	var notFoundErr *services.NotFoundError
	if errors.As(err, &notFoundErr) {
		return http.StatusNotFound
	}
	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
