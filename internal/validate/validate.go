package validate

import (
	"encoding/base64"
	"net/url"
	"strings"
)

const (
	upperAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	base62     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	base64Like = base62 + "+/="
)

// LengthBetween returns true if len(s) is within [min,max].
func LengthBetween(s string, min, max int) bool {
	n := len(s)
	return n >= min && n <= max
}

// IsAlphabet returns true if every byte of s is in allowed.
func IsAlphabet(s, allowed string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(allowed, s[i]) < 0 {
			return false
		}
	}
	return true
}

// IsBase64URLNoPad reports whether s is valid unpadded base64url, as used by
// JWT segments.
func IsBase64URLNoPad(s string) bool {
	if s == "" {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil
}

// LooksLikeAWSAccessKey checks for AKIA/ASIA + 16 uppercase alnum.
func LooksLikeAWSAccessKey(s string) bool {
	if !(strings.HasPrefix(s, "AKIA") || strings.HasPrefix(s, "ASIA")) {
		return false
	}
	return len(s) == 20 && IsAlphabet(s[4:], upperAlnum)
}

// LooksLikeAWSSecretKey checks the base64 alphabet and exact length 40.
func LooksLikeAWSSecretKey(s string) bool {
	return len(s) == 40 && IsAlphabet(s, base64Like)
}

// githubLengths maps token prefixes to their exact total length.
var githubLengths = map[string]int{
	"ghp_":        40,
	"gho_":        40,
	"ghu_":        40,
	"ghs_":        40,
	"ghr_":        40,
	"github_pat_": 93,
}

// LooksLikeGitHubToken applies the prefix-specific length rule. Tokens with
// an unknown prefix are accepted.
func LooksLikeGitHubToken(s string) bool {
	for prefix, n := range githubLengths {
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		if len(s) != n {
			return false
		}
		return IsAlphabet(s[len(prefix):], base62+"_")
	}
	return true
}

// IsJWTStructure verifies 3 segments with base64url header and payload.
func IsJWTStructure(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	return IsBase64URLNoPad(parts[0]) && IsBase64URLNoPad(parts[1])
}

// HasDatabaseCredentials reports whether s parses as a URI carrying a
// non-empty username, password and host.
func HasDatabaseCredentials(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return false
	}
	pw, ok := u.User.Password()
	return ok && pw != "" && u.User.Username() != "" && u.Hostname() != ""
}
