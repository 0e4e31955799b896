package contract

import "strings"

// ErrorResult is the in-band failure shape handed back to the model.
func ErrorResult(message string) map[string]any {
	return map[string]any{"error": message}
}

// IsErrorResult reports whether result is a map whose "error" entry is a
// non-blank string. A payload with an empty or non-string "error" is a
// regular result.
func IsErrorResult(result any) bool {
	var value any
	switch typed := result.(type) {
	case map[string]any:
		value = typed["error"]
	case map[string]string:
		value = typed["error"]
	default:
		return false
	}
	message, ok := value.(string)
	return ok && strings.TrimSpace(message) != ""
}

// ErrorMessage returns the error text of an error result, or "".
func ErrorMessage(result any) string {
	if !IsErrorResult(result) {
		return ""
	}
	switch typed := result.(type) {
	case map[string]any:
		message, _ := typed["error"].(string)
		return message
	case map[string]string:
		return typed["error"]
	}
	return ""
}
