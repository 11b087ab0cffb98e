package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bakkerme/subwatch/internal/core"
)

// Rule is a compiled boolean expression deciding whether a new entry gets reported.
//
// The expression sees:
//
//	id, url            string
//	title.value        string
//	title.length       int
//	created_at         time.Time (zero when the timestamp was rejected)
//	has_created_at     bool
//
// Example: `title.value contains "release" && title.length < 120`.
type Rule struct {
	source  string
	program *vm.Program
}

// Compile builds a rule. An empty expression yields nil, which matches everything.
func Compile(source string) (*Rule, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil
	}
	program, err := expr.Compile(source, expr.Env(ruleEnv(core.Entry{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter rule: %w", err)
	}
	return &Rule{source: source, program: program}, nil
}

func (r *Rule) String() string {
	if r == nil {
		return ""
	}
	return r.source
}

// Match reports whether the entry passes the rule. A nil rule matches every entry.
func (r *Rule) Match(entry core.Entry) (bool, error) {
	if r == nil {
		return true, nil
	}
	result, err := expr.Run(r.program, ruleEnv(entry))
	if err != nil {
		return false, fmt.Errorf("evaluate filter rule: %w", err)
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter rule did not return bool")
	}
	return matched, nil
}

func ruleEnv(entry core.Entry) map[string]interface{} {
	return map[string]interface{}{
		"id":  entry.ID,
		"url": entry.URL,
		"title": map[string]interface{}{
			"value":  entry.Title,
			"length": len(entry.Title),
		},
		"created_at":     entry.CreatedAt,
		"has_created_at": entry.CreatedErr == nil,
		"now":            time.Now(),
	}
}
