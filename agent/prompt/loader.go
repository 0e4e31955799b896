package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/base.txt
var baseRaw string

// Base returns the fixed operating instructions, trimmed.
func Base() string {
	return strings.TrimSpace(baseRaw)
}
