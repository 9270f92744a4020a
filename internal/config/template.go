package config

import (
	"fmt"
	"strings"
)

// CommandVars holds variables for command template expansion.
type CommandVars struct {
	Currency string
	Version  string
}

// ExpandCommand substitutes {{.Currency}} and {{.Version}} in each argument
// of argv and splits it into a program name and arguments.
// Replacement is single-pass, so values containing placeholders are not
// expanded again.
func ExpandCommand(argv []string, vars CommandVars) (string, []string, error) {
	if len(argv) == 0 || argv[0] == "" {
		return "", nil, fmt.Errorf("empty command")
	}
	r := strings.NewReplacer(
		"{{.Currency}}", vars.Currency,
		"{{.Version}}", vars.Version,
	)
	expanded := make([]string, len(argv))
	for i, arg := range argv {
		expanded[i] = r.Replace(arg)
	}
	return expanded[0], expanded[1:], nil
}
