package redact

import (
	"fmt"
	"regexp"
	"strings"
)

// Marker replaces every redacted value.
const Marker = "<redacted>"

// MinSecretLength is the shortest value considered by the entropy check.
const MinSecretLength = 32

// Class is the classification assigned to a key/value pair.
type Class int

const (
	ClassPlain Class = iota
	ClassSecretKey
	ClassPlaceholder
	ClassPath
	ClassHighEntropy
)

func (c Class) String() string {
	switch c {
	case ClassSecretKey:
		return "secret-key"
	case ClassPlaceholder:
		return "placeholder"
	case ClassPath:
		return "path"
	case ClassHighEntropy:
		return "high-entropy"
	}
	return "plain"
}

// Redacted reports whether values of this class are masked.
func (c Class) Redacted() bool {
	return c == ClassSecretKey || c == ClassHighEntropy
}

var secretKeyTokens = []string{
	"token",
	"secret",
	"password",
	"passwd",
	"api-key",
	"api_key",
	"apikey",
	"bearer",
	"authorization",
	"cookie",
	"credential",
	"private-key",
	"private_key",
}

var (
	placeholderPattern = regexp.MustCompile(`^\$(\{[A-Za-z_][A-Za-z0-9_]*(:?-[^}]*)?\}|[A-Za-z_][A-Za-z0-9_]*)$`)
	drivePattern       = regexp.MustCompile(`^[A-Za-z]:[\\/]`)
	extPattern         = regexp.MustCompile(`\.[A-Za-z0-9]{1,8}$`)
	entropyPattern     = regexp.MustCompile(`^[A-Za-z0-9+/=_-]+$`)
)

// Classify returns the class of value under key, applying the rules in
// order: secret key name, placeholder, path, high entropy, plain.
func Classify(key, value string) Class {
	if IsSecretKey(key) {
		return ClassSecretKey
	}
	if IsPlaceholder(value) {
		return ClassPlaceholder
	}
	if IsPathLike(value) {
		return ClassPath
	}
	if IsHighEntropy(value) {
		return ClassHighEntropy
	}
	return ClassPlain
}

// Redact returns Marker when value must be masked, otherwise value.
func Redact(key, value string) string {
	if Classify(key, value).Redacted() {
		return Marker
	}
	return value
}

// IsSecretKey reports whether key contains a secret-shaped token,
// ignoring case.
func IsSecretKey(key string) bool {
	k := strings.ToLower(key)
	for _, tok := range secretKeyTokens {
		if strings.Contains(k, tok) {
			return true
		}
	}
	return false
}

// IsPlaceholder reports whether the whole value is an environment reference
// such as ${NAME}, ${NAME:-default} or $NAME.
func IsPlaceholder(value string) bool {
	return placeholderPattern.MatchString(strings.TrimSpace(value))
}

// IsPathLike reports whether value looks like a filesystem path.
func IsPathLike(value string) bool {
	if value == "" || strings.ContainsAny(value, " \t\n") {
		return false
	}
	for _, prefix := range []string{"/", "~/", "./", "../"} {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	if drivePattern.MatchString(value) {
		return true
	}
	if strings.Contains(value, "://") {
		return false
	}
	if !strings.ContainsAny(value, `/\`) {
		return false
	}
	segments := strings.FieldsFunc(value, func(r rune) bool { return r == '/' || r == '\\' })
	// Base64 payloads contain '/' too; require short segments or an extension.
	if extPattern.MatchString(value) && !IsHighEntropy(value) {
		return true
	}
	if len(segments) >= 2 {
		for _, s := range segments {
			if len(s) >= MinSecretLength {
				return false
			}
		}
		return true
	}
	return false
}

// IsHighEntropy reports whether value is long and drawn from a hex or
// base64-ish alphabet with no whitespace.
func IsHighEntropy(value string) bool {
	return len(value) >= MinSecretLength && entropyPattern.MatchString(value)
}

// Map redacts every value in m key-by-key. The input is not modified.
func Map(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = Redact(k, v)
	}
	return out
}

// Value redacts v recursively. Map values are classified under their own
// key; sequence elements inherit the key of the enclosing field. Anything
// other than a string under a secret-shaped key is replaced whole by Marker.
func Value(key string, v any) any {
	if v != nil && IsSecretKey(key) {
		if s, ok := v.(string); ok {
			return Redact(key, s)
		}
		return Marker
	}
	switch t := v.(type) {
	case string:
		return Redact(key, t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Value(k, val)
		}
		return out
	case map[string]string:
		return Map(t)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Value(key, val)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, val := range t {
			out[i] = Redact(key, val)
		}
		return out
	default:
		return v
	}
}

// Env masks an environment map strictly: every value is redacted except
// whole-value placeholders, and nil values become empty strings. It is
// used for sources whose env blocks are known to carry credentials.
func Env(env map[string]any) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		switch t := v.(type) {
		case nil:
			out[k] = ""
		case string:
			if IsPlaceholder(t) {
				out[k] = t
			} else {
				out[k] = Marker
			}
		default:
			out[k] = Marker
		}
	}
	return out
}

// Strings applies Value to a decoded env map and flattens the result to
// strings.
func Strings(env map[string]any) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		switch t := Value(k, v).(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = t
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}
