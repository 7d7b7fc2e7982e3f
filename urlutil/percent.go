// Package urlutil implements URL parsing/canonicalisation and the
// percent/query codecs, byte-oriented with explicit error context
// rather than built on regular expressions.
package urlutil

const hexDigits = "0123456789ABCDEF"

// isUnreserved reports whether b is in the RFC 3986 unreserved set:
// ASCII letters, digits, '-', '_', '.', '~'.
func isUnreserved(b byte) bool {
	switch {
	case 'A' <= b && b <= 'Z', 'a' <= b && b <= 'z', '0' <= b && b <= '9':
		return true
	case b == '-' || b == '_' || b == '.' || b == '~':
		return true
	default:
		return false
	}
}

// PercentEncode encodes s per RFC 3986: unreserved bytes pass through
// unchanged, everything else becomes %HH (uppercase hex). Space is not
// special-cased here; callers needing the +-for-space form body/query
// variant use FormEncode/EncodeQuery instead.
func PercentEncode(s string) string {
	return encode(s, false, false)
}

// PercentEncodePath behaves like PercentEncode but additionally leaves
// '/' untouched, for re-encoding a URL path.
func PercentEncodePath(s string) string {
	return encode(s, false, true)
}

// FormEncode is the application/x-www-form-urlencoded variant: space
// becomes '+', everything else follows PercentEncode.
func FormEncode(s string) string {
	return encode(s, true, false)
}

func encode(s string, plusForSpace, keepSlash bool) string {
	var needsEscape int
	for i := 0; i < len(s); i++ {
		b := s[i]
		if isUnreserved(b) || (keepSlash && b == '/') {
			continue
		}
		needsEscape++
	}
	if needsEscape == 0 {
		return s
	}

	out := make([]byte, 0, len(s)+2*needsEscape)
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case isUnreserved(b) || (keepSlash && b == '/'):
			out = append(out, b)
		case plusForSpace && b == ' ':
			out = append(out, '+')
		default:
			out = append(out, '%', hexDigits[b>>4], hexDigits[b&0x0f])
		}
	}
	return string(out)
}

// PercentDecode is the inverse of FormEncode/PercentEncode: '+' becomes
// space, '%HH' becomes one byte (hex digits accepted case-insensitively),
// and a malformed '%' sequence (missing or non-hex digits) is passed
// through literally as '%'.
func PercentDecode(s string) string {
	var needsDecode bool
	for i := 0; i < len(s); i++ {
		if s[i] == '%' || s[i] == '+' {
			needsDecode = true
			break
		}
	}
	if !needsDecode {
		return s
	}

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '+':
			out = append(out, ' ')
		case '%':
			if i+2 < len(s) {
				hi, okHi := hexVal(s[i+1])
				lo, okLo := hexVal(s[i+2])
				if okHi && okLo {
					out = append(out, hi<<4|lo)
					i += 2
					continue
				}
			}
			out = append(out, '%')
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}

func hexVal(b byte) (byte, bool) {
	switch {
	case '0' <= b && b <= '9':
		return b - '0', true
	case 'a' <= b && b <= 'f':
		return b - 'a' + 10, true
	case 'A' <= b && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}
