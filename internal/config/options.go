package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Options is a loosely typed option bag used by parsers and transforms.
// Values come from YAML, env vars or code, so getters accept several
// representations and fall back to the default when the key is absent or
// cannot be converted.
type Options map[string]any

// Any returns the raw value for key, or nil.
func (o Options) Any(key string) any {
	if o == nil {
		return nil
	}
	return o[key]
}

func (o Options) String(key, def string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func (o Options) Bool(key string, def bool) bool {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return def
		}
		return b
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return def
	}
}

func (o Options) Int(key string, def int) int {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

// Rune returns the first rune of a string option. "\t" and "tab" both mean a
// tab, which is the only escape worth supporting for delimiters.
func (o Options) Rune(key string, def rune) rune {
	s := o.String(key, "")
	switch s {
	case "":
		return def
	case `\t`, "tab":
		return '\t'
	}
	for _, r := range s {
		return r
	}
	return def
}

// StringMap returns a map option with every value stringified.
func (o Options) StringMap(key string) map[string]string {
	v, ok := o[key]
	if !ok || v == nil {
		return nil
	}
	out := map[string]string{}
	switch t := v.(type) {
	case map[string]string:
		for k, s := range t {
			out[k] = s
		}
	case map[string]any:
		for k, s := range t {
			out[k] = fmt.Sprint(s)
		}
	default:
		return nil
	}
	return out
}
