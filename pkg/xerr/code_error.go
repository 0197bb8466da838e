package xerr

import (
	"errors"
	"fmt"
)

// CodeError 自定义错误结构
type CodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (e *CodeError) Error() string {
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

// New 创建新的 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Message: msg}
}

// Is 支持 errors.Is 按错误码匹配
func (e *CodeError) Is(target error) bool {
	var t *CodeError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// 常用通用错误码
const (
	OK                  = 200
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500

	// 领域错误码
	IngestionError       = 4101
	EmbeddingUnavailable = 5101
	GenerationError      = 5102
)

// 常用预定义错误
var (
	ErrSuccess     = New(OK, "Success")
	ErrServerError = New(InternalServerError, "internal server error")
	ErrParam       = New(BadRequest, "invalid request parameter")

	// ErrIngestion 文档不可读/为空，不影响既有索引
	ErrIngestion = New(IngestionError, "document ingestion failed")
	// ErrEmbeddingUnavailable 向量化后端不可达（重试耗尽后上抛）
	ErrEmbeddingUnavailable = New(EmbeddingUnavailable, "embedding backend unavailable")
	// ErrGeneration LLM 生成失败或超时，该轮会话状态不落盘
	ErrGeneration = New(GenerationError, "answer generation failed")
)
