package secret

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

var bracedVar = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv expands $VAR and ${VAR} from the process environment.
// See ExpandEnvFunc.
func ExpandEnv(s string) (string, error) {
	return ExpandEnvFunc(s, os.LookupEnv)
}

// ExpandEnvFunc expands $VAR and ${VAR} using lookup. A braced variable
// that lookup does not know is an error naming every missing variable; a
// bare $VAR expands to empty. $$ is a literal dollar.
func ExpandEnvFunc(s string, lookup func(string) (string, bool)) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	var missing []string
	for _, m := range bracedVar.FindAllStringSubmatch(s, -1) {
		if _, ok := lookup(m[1]); !ok && !slices.Contains(missing, m[1]) {
			missing = append(missing, m[1])
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("secret: missing environment variables: %s", strings.Join(missing, ", "))
	}

	return os.Expand(s, func(name string) string {
		if name == "$" {
			return "$"
		}
		v, _ := lookup(name)
		return v
	}), nil
}
