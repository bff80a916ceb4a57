// Package config handles resdump.yaml loading.
package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} with the variable's value and ${VAR:-default}
// with the value or, when unset or empty, the default. Unset variables
// without a default expand to the empty string; missing secrets surface
// later when the component using them is validated.
func ExpandEnv(input string) string {
	matches := envVarPattern.FindAllStringSubmatchIndex(input, -1)
	if matches == nil {
		return input
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(input[last:m[0]])
		value := os.Getenv(input[m[2]:m[3]])
		if value == "" && m[4] >= 0 {
			value = input[m[4]:m[5]]
		}
		b.WriteString(value)
		last = m[1]
	}
	b.WriteString(input[last:])
	return b.String()
}
