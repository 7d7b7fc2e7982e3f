package urlutil

import (
	"strconv"
	"strings"

	httperrors "github.com/nczempin/httpstream/errors"
	"github.com/nczempin/httpstream/message"
)

// ParseURL turns a URL string into a canonical request descriptor. Only
// "http://" and "https://" (exact case) are accepted; anything else
// fails with an invalid-URL error carrying the original input and the
// reason "Invalid scheme".
func ParseURL(raw string) (*message.Request, error) {
	var secure bool
	var rest string
	switch {
	case strings.HasPrefix(raw, "http://"):
		secure = false
		rest = raw[len("http://"):]
	case strings.HasPrefix(raw, "https://"):
		secure = true
		rest = raw[len("https://"):]
	default:
		return nil, httperrors.NewURLError(raw, "Invalid scheme")
	}

	authority, afterAuthority, hasSlash := cutFirst(rest, '/')
	// Non-ASCII bytes in the authority are percent-encoded here. The path
	// keeps its raw bytes until PercentEncodePath encodes each of them
	// exactly once below, and the query is decoded by ParseQuery, so
	// neither goes through this step.
	authority = encodeNonASCII(authority)
	var path string
	if hasSlash {
		path = "/" + afterAuthority
	} else {
		path = "/"
	}

	host, portStr, hasPort := cutFirst(authority, ':')
	var port int
	if hasPort {
		p, err := strconv.Atoi(portStr)
		if err != nil || p < 1 || p > 65535 {
			return nil, httperrors.NewURLError(raw, "Invalid port")
		}
		port = p
	} else {
		host = authority
		if secure {
			port = 443
		} else {
			port = 80
		}
	}

	pathPart, queryPart, _ := cutFirst(path, '?')
	if idx := strings.IndexByte(queryPart, '#'); idx >= 0 {
		queryPart = queryPart[:idx]
	} else if idx := strings.IndexByte(pathPart, '#'); idx >= 0 {
		// A '#' can also appear before any '?', in which case the whole
		// fragment (and anything resembling a query within it) is
		// discarded along with everything after it.
		pathPart = pathPart[:idx]
		queryPart = ""
	}

	if pathPart == "" {
		pathPart = "/"
	}
	canonicalPath := PercentEncodePath(pathPart)

	query := ParseQuery(queryPart)

	return &message.Request{
		Method: message.MethodGet,
		Secure: secure,
		Host:   host,
		Port:   port,
		Path:   canonicalPath,
		Query:  query,
		Body:   message.EmptyBody,
	}, nil
}

// encodeNonASCII percent-encodes any byte >= 0x80, leaving the ASCII
// structural characters ('/', '?', '#', ':', '&', '=', '%') untouched so
// later parse stages still see them.
func encodeNonASCII(s string) string {
	var count int
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			count++
		}
	}
	if count == 0 {
		return s
	}
	out := make([]byte, 0, len(s)+2*count)
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= 0x80 {
			out = append(out, '%', hexDigits[b>>4], hexDigits[b&0x0f])
		} else {
			out = append(out, b)
		}
	}
	return string(out)
}
