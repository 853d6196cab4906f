package sandbox

import "strings"

// Matches 去掉首尾空白后严格相等，不做数字格式归一化（"8" != "8.0"）
func Matches(actual, expected string) bool {
	return strings.TrimSpace(actual) == strings.TrimSpace(expected)
}
