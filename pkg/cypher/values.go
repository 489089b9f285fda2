package cypher

import "strconv"

// undefined is the evaluator's sentinel for "no such variable" / "no such
// property", distinct from an explicit null literal. spec.md §4.5: missing
// variables and missing properties never raise, they evaluate to
// undefined, and any comparison involving undefined (other than IS NULL)
// is false.
type undefined struct{}

var undefinedValue = undefined{}

func isUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// isNullish reports whether v is either the null literal (Go nil) or
// undefined — the set IS NULL treats as true.
func isNullish(v any) bool {
	return v == nil || isUndefined(v)
}

// toFloat64 attempts a numeric interpretation of v, used both for direct
// numeric comparisons and, under type coercion, for coercing strings.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// coerceNumeric parses a string as a float when enableTypeCoercion allows
// strings to stand in for numbers in comparisons.
func coerceNumeric(v any) (float64, bool) {
	if f, ok := toFloat64(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// coerceBool interprets 1/0, "true"/"false" as booleans under type
// coercion, in addition to a native bool.
func coerceBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		if b == 1 {
			return true, true
		}
		if b == 0 {
			return false, true
		}
	case string:
		switch b {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// valuesEqual implements spec.md §4.5's `=`/`<>` semantics: deep equality
// on primitives; in strict mode null == null is true and null == x (x
// non-null) is false. Under type coercion, numeric-looking strings and
// 1/0/"true"/"false" compare across type.
func valuesEqual(a, b any, coerce bool) bool {
	if isUndefined(a) || isUndefined(b) {
		return false
	}
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			return af == bf
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return as == bs
		}
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			return ab == bb
		}
	}

	if coerce {
		if af, aok := coerceNumeric(a); aok {
			if bf, bok := coerceNumeric(b); bok {
				return af == bf
			}
		}
		if ab, aok := coerceBool(a); aok {
			if bb, bok := coerceBool(b); bok {
				return ab == bb
			}
		}
	}

	return false
}

// compareOrdered implements spec.md §4.5's `<`,`<=`,`>`,`>=`: numeric on
// numbers, lexicographic on strings, false for incompatible types.
// cmp receives (a-relation-to-b) style ints like strings.Compare.
func compareOrdered(a, b any, coerce bool) (cmp int, ok bool) {
	if isUndefined(a) || isUndefined(b) || a == nil || b == nil {
		return 0, false
	}

	af, aok := toFloat64(a)
	bf, bok := toFloat64(b)
	if coerce {
		if !aok {
			af, aok = coerceNumeric(a)
		}
		if !bok {
			bf, bok = coerceNumeric(b)
		}
	}
	if aok && bok {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		default:
			return 0, true
		}
	}

	return 0, false
}
