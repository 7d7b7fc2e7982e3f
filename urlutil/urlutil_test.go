package urlutil

import (
	"testing"

	"github.com/nczempin/httpstream/message"
)

func TestPercentEncodeDecodeRoundTrip(t *testing.T) {
	cases := []string{"hello", "a b", "a/b?c", "héllo", "100%"}
	for _, c := range cases {
		encoded := PercentEncode(c)
		decoded := PercentDecode(encoded)
		if decoded != c {
			t.Errorf("round trip failed for %q: encoded %q, decoded %q", c, encoded, decoded)
		}
	}
}

func TestFormEncodeSpaceBecomesPlus(t *testing.T) {
	if got := FormEncode("a b"); got != "a+b" {
		t.Errorf("expected %q, got %q", "a+b", got)
	}
}

func TestPercentDecodeMalformedSequencePassesThrough(t *testing.T) {
	if got := PercentDecode("100%"); got != "100%" {
		t.Errorf("expected %q, got %q", "100%", got)
	}
	if got := PercentDecode("%zz"); got != "%zz" {
		t.Errorf("expected %q, got %q", "%zz", got)
	}
}

func TestPercentEncodePathKeepsSlash(t *testing.T) {
	if got := PercentEncodePath("/a/b c"); got != "/a/b%20c" {
		t.Errorf("expected %q, got %q", "/a/b%20c", got)
	}
}

func TestParseURL_SchemeAndAuthority(t *testing.T) {
	req, err := ParseURL("http://example.com:8080/a/b?x=1&y=2#frag")
	if err != nil {
		t.Fatalf("ParseURL failed: %v", err)
	}
	if req.Secure {
		t.Error("expected insecure scheme")
	}
	if req.Host != "example.com" || req.Port != 8080 {
		t.Errorf("expected host example.com:8080, got %s:%d", req.Host, req.Port)
	}
	if req.Path != "/a/b" {
		t.Errorf("expected path /a/b, got %s", req.Path)
	}
	if len(req.Query) != 2 || req.Query[0].Key != "x" || req.Query[0].Value != "1" {
		t.Errorf("unexpected query: %+v", req.Query)
	}
	if req.Method != message.MethodGet {
		t.Errorf("expected default method GET, got %s", req.Method)
	}
}

func TestParseURL_DefaultPorts(t *testing.T) {
	plain, err := ParseURL("http://example.com/")
	if err != nil {
		t.Fatalf("ParseURL failed: %v", err)
	}
	if plain.Port != 80 {
		t.Errorf("expected default port 80, got %d", plain.Port)
	}

	secure, err := ParseURL("https://example.com/")
	if err != nil {
		t.Fatalf("ParseURL failed: %v", err)
	}
	if secure.Port != 443 {
		t.Errorf("expected default port 443, got %d", secure.Port)
	}
}

func TestParseURL_InvalidScheme(t *testing.T) {
	if _, err := ParseURL("ftp://example.com/"); err == nil {
		t.Error("expected error for non-http(s) scheme")
	}
}

func TestParseURL_InvalidPort(t *testing.T) {
	if _, err := ParseURL("http://example.com:notaport/"); err == nil {
		t.Error("expected error for non-numeric port")
	}
	if _, err := ParseURL("http://example.com:99999/"); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestParseURL_FragmentBeforeQueryDiscardsBoth(t *testing.T) {
	req, err := ParseURL("http://example.com/path#frag?notaquery=1")
	if err != nil {
		t.Fatalf("ParseURL failed: %v", err)
	}
	if req.Path != "/path" {
		t.Errorf("expected path /path, got %s", req.Path)
	}
	if len(req.Query) != 0 {
		t.Errorf("expected no query params, got %+v", req.Query)
	}
}

func TestParseURL_EmptyPathDefaultsToSlash(t *testing.T) {
	req, err := ParseURL("http://example.com")
	if err != nil {
		t.Fatalf("ParseURL failed: %v", err)
	}
	if req.Path != "/" {
		t.Errorf("expected root path, got %s", req.Path)
	}
}

func TestParseURL_NonASCIIPathIsPercentEncoded(t *testing.T) {
	req, err := ParseURL("http://example.com/héllo")
	if err != nil {
		t.Fatalf("ParseURL failed: %v", err)
	}
	if req.Path != "/h%C3%A9llo" {
		t.Errorf("expected percent-encoded path, got %s", req.Path)
	}
}

func TestEncodeQuery_KeepsEqualsForEmptyValue(t *testing.T) {
	got := EncodeQuery([]message.QueryParam{{Key: "x", Value: ""}})
	if got != "x=" {
		t.Errorf("expected %q, got %q", "x=", got)
	}
}

func TestFormEncodeBody_DropsEqualsForEmptyValue(t *testing.T) {
	got := FormEncodeBody([]message.QueryParam{{Key: "x", Value: ""}, {Key: "y", Value: "1"}})
	if got != "x&y=1" {
		t.Errorf("expected %q, got %q", "x&y=1", got)
	}
}

func TestParseQuery_MissingEqualsYieldsEmptyValue(t *testing.T) {
	params := ParseQuery("a&b=2")
	if len(params) != 2 || params[0].Key != "a" || params[0].Value != "" {
		t.Errorf("unexpected parse: %+v", params)
	}
	if params[1].Key != "b" || params[1].Value != "2" {
		t.Errorf("unexpected parse: %+v", params)
	}
}
