package urlutil

import "strings"

import "github.com/nczempin/httpstream/message"

// EncodeQuery renders params as "k=v&k=v", values encoded with the
// space-to-'+' rule. A key with an empty value loses its '=' only in
// FormEncodeBody, never here: the query string always keeps '=' so that
// "?x=" round-trips distinctly from "?x".
func EncodeQuery(params []message.QueryParam) string {
	if len(params) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(FormEncode(p.Key))
		b.WriteByte('=')
		b.WriteString(FormEncode(p.Value))
	}
	return b.String()
}

// ParseQuery parses a raw query string (no leading '?') into an ordered
// list of decoded pairs: split on '&', then on the first '=' within each
// segment; an absent '=' yields an empty value.
func ParseQuery(raw string) []message.QueryParam {
	if raw == "" {
		return nil
	}
	segments := strings.Split(raw, "&")
	params := make([]message.QueryParam, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		key, value, hasEq := cutFirst(seg, '=')
		if !hasEq {
			value = ""
		}
		params = append(params, message.QueryParam{
			Key:   PercentDecode(key),
			Value: PercentDecode(value),
		})
	}
	return params
}

// FormEncodeBody renders pairs as the application/x-www-form-urlencoded
// body used by the url-encoded POST helper: "k=v&k=v" joined with '&',
// '=' omitted when the value is empty.
func FormEncodeBody(pairs []message.QueryParam) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(FormEncode(p.Key))
		if p.Value != "" {
			b.WriteByte('=')
			b.WriteString(FormEncode(p.Value))
		}
	}
	return b.String()
}

func cutFirst(s string, sep byte) (before, after string, found bool) {
	idx := strings.IndexByte(s, sep)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}
