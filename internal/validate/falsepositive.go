package validate

import "regexp"

// genericFalsePositives reject placeholders, documentation samples and
// fragments of markup that secret-shaped rules tend to pick up.
var genericFalsePositives = []*regexp.Regexp{
	// placeholder words
	regexp.MustCompile(`(?i)^(?:example|sample|test|demo|dummy|fake|placeholder|changeme|redacted|insert|replace|todo|none|null|undefined)`),
	regexp.MustCompile(`(?i)(?:your|my)[_-]?(?:api[_-]?|access[_-]?|secret[_-]?)?(?:key|token|secret|password)`),
	regexp.MustCompile(`(?i)[_-]here$`),
	regexp.MustCompile(`(?i)x{8,}|\*{4,}|\.{3,}`),
	// template syntax
	regexp.MustCompile(`^<[^>]*>$|^\$\{[^}]*\}$|^\{\{.*\}\}$|^%[A-Za-z_]+%$`),
	// pure short alphabetic strings
	regexp.MustCompile(`^[A-Za-z]{1,20}$`),
	// DOM attributes
	regexp.MustCompile(`(?i)^(?:data|aria)-[a-z0-9-]+`),
	regexp.MustCompile(`(?i)^(?:on[a-z]+|class|style|href|src|id|name|type|value)\s*=`),
	// UI identifiers: css classes, element ids, camelCase field names
	regexp.MustCompile(`(?i)^(?:btn|button|input|icon|modal|label|tooltip|dropdown|container|wrapper|form|nav|menu)[-_]`),
	regexp.MustCompile(`^[a-z]+(?:-[a-z]+){2,}$`),
	regexp.MustCompile(`^[a-z]+(?:_[a-z]+){2,}$`),
	regexp.MustCompile(`^[a-z]+(?:[A-Z][a-z]+){2,}$`),
}

// IsGenericFalsePositive reports whether s matches any generic placeholder
// or markup pattern.
func IsGenericFalsePositive(s string) bool {
	for _, re := range genericFalsePositives {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
