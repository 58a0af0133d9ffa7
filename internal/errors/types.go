package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误
	ErrCodeInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrCodeBadRequest     ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"

	// 验证错误
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	// 文档处理错误
	ErrCodeEmbeddingFailed    ErrorCode = "EMBEDDING_FAILED"
	ErrCodeDocumentProcessing ErrorCode = "DOCUMENT_PROCESSING_FAILED"

	// 检索错误
	ErrCodeRetrievalFailed  ErrorCode = "RETRIEVAL_FAILED"
	ErrCodeNoIndexedContent ErrorCode = "NO_INDEXED_CONTENT"

	// 缓存错误
	ErrCodeCacheQuotaExceeded ErrorCode = "CACHE_QUOTA_EXCEEDED"

	// 生成错误
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
)

// ErrorType 错误类型
type ErrorType int

const (
	ErrorTypeSystem ErrorType = iota
	ErrorTypeBusiness
	ErrorTypeValidation
	ErrorTypeExternal
)

// AppError 应用错误结构体
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Type     ErrorType   `json:"type"`
	HTTPCode int         `json:"-"`
	Details  interface{} `json:"details,omitempty"`
	Cause    error       `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加错误详情
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause 添加错误原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// 错误构造函数

// NewValidationError 创建验证错误
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Type:     ErrorTypeValidation,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewEmbeddingError 创建向量化错误（单块级别，可恢复）
func NewEmbeddingError(chunkIndex int, cause error) *AppError {
	return &AppError{
		Code:     ErrCodeEmbeddingFailed,
		Message:  fmt.Sprintf("failed to embed chunk %d", chunkIndex),
		Type:     ErrorTypeExternal,
		HTTPCode: http.StatusBadGateway,
		Cause:    cause,
	}
}

// NewDocumentProcessingError 创建文档处理错误（文档级别，向调用方透出）
func NewDocumentProcessingError(fileName string, cause error) *AppError {
	return &AppError{
		Code:     ErrCodeDocumentProcessing,
		Message:  fmt.Sprintf("failed to process document %s", fileName),
		Type:     ErrorTypeBusiness,
		HTTPCode: http.StatusUnprocessableEntity,
		Cause:    cause,
	}
}

// NewRetrievalError 创建检索错误
func NewRetrievalError(message string, cause error) *AppError {
	return &AppError{
		Code:     ErrCodeRetrievalFailed,
		Message:  message,
		Type:     ErrorTypeBusiness,
		HTTPCode: http.StatusUnprocessableEntity,
		Cause:    cause,
	}
}

// NewNoIndexedContentError 活跃文档没有任何已索引分块
func NewNoIndexedContentError() *AppError {
	return &AppError{
		Code:     ErrCodeNoIndexedContent,
		Message:  "no indexed content available from active files",
		Type:     ErrorTypeBusiness,
		HTTPCode: http.StatusUnprocessableEntity,
	}
}

// NewCacheQuotaError 创建缓存容量错误（仅作为警告透出，不中断主流程）
func NewCacheQuotaError(cause error) *AppError {
	return &AppError{
		Code:     ErrCodeCacheQuotaExceeded,
		Message:  "chunk cache write failed: storage quota exceeded",
		Type:     ErrorTypeSystem,
		HTTPCode: http.StatusInsufficientStorage,
		Cause:    cause,
	}
}

// NewGenerationError 创建回答生成错误
func NewGenerationError(cause error) *AppError {
	return &AppError{
		Code:     ErrCodeGenerationFailed,
		Message:  "failed to generate answer",
		Type:     ErrorTypeExternal,
		HTTPCode: http.StatusBadGateway,
		Cause:    cause,
	}
}

// NewNotFoundError 创建资源未找到错误
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%s not found", resource),
		Type:     ErrorTypeBusiness,
		HTTPCode: http.StatusNotFound,
	}
}

// NewSystemError 创建系统错误
func NewSystemError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeInternalServer,
		Message:  message,
		Type:     ErrorTypeSystem,
		HTTPCode: http.StatusInternalServerError,
	}
}

// IsAppError 检查是否为AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// IsCode 检查错误是否携带指定错误码
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}

// GetAppError 获取AppError，如果不是则包装为系统错误
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewSystemError("Internal server error").WithCause(err)
}
