package serverutils

import "prd-builder-be/internal/dto"

type BaseResponse[T any] struct {
	Data T `json:"data"`
}

type PaginatedResponse[T any] struct {
	Data       T              `json:"data"`
	Pagination dto.Pagination `json:"pagination"`
}

type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func SuccessResponse[T any](data T) BaseResponse[T] {
	return BaseResponse[T]{Data: data}
}

func PaginatedSuccessResponse[T any](data T, pagination dto.Pagination) PaginatedResponse[T] {
	return PaginatedResponse[T]{Data: data, Pagination: pagination}
}
