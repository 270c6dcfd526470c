package utils

// P 取值的指针，方便可选 JSON 字段
func P[T any](v T) *T {
	return &v
}
