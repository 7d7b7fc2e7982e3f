package protocol

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/nczempin/httpstream/message"
	"github.com/nczempin/httpstream/transport"
)

// fakeTransport is an in-memory transport.Transport: Write appends to
// out, Read serves from in.
type fakeTransport struct {
	in  *bytes.Buffer
	out bytes.Buffer
}

func (f *fakeTransport) Connect(host string, port int) error { return nil }
func (f *fakeTransport) Write(buf []byte) (int, error)       { return f.out.Write(buf) }
func (f *fakeTransport) Read(buf []byte) (int, error)        { return f.in.Read(buf) }
func (f *fakeTransport) Close() error                        { return nil }

func TestHostHeader_OmitsDefaultPort(t *testing.T) {
	req := &message.Request{Host: "example.com", Port: 80}
	if got := HostHeader(req); got != "example.com" {
		t.Errorf("expected %q, got %q", "example.com", got)
	}

	req.Port = 8080
	if got := HostHeader(req); got != "example.com:8080" {
		t.Errorf("expected %q, got %q", "example.com:8080", got)
	}

	secure := &message.Request{Host: "example.com", Port: 443, Secure: true}
	if got := HostHeader(secure); got != "example.com" {
		t.Errorf("expected %q, got %q", "example.com", got)
	}
}

func TestRequestTarget_SingleQuestionMark(t *testing.T) {
	req := &message.Request{
		Path:  "/search",
		Query: []message.QueryParam{{Key: "q", Value: "a b"}, {Key: "n", Value: "1"}},
	}
	target := RequestTarget(req)
	if strings.Count(target, "?") != 1 {
		t.Errorf("expected exactly one '?' in %q", target)
	}
	if target != "/search?q=a+b&n=1" {
		t.Errorf("expected %q, got %q", "/search?q=a+b&n=1", target)
	}
}

func TestRequestTarget_NoQueryOmitsQuestionMark(t *testing.T) {
	req := &message.Request{Path: "/plain"}
	if got := RequestTarget(req); got != "/plain" {
		t.Errorf("expected %q, got %q", "/plain", got)
	}
}

func TestWriteRequest_ExactContentLengthAndReservedHeadersDropped(t *testing.T) {
	req := &message.Request{
		Method: message.MethodPost,
		Host:   "example.com",
		Port:   80,
		Path:   "/submit",
		Body:   message.BytesBody([]byte("abcde")),
		Headers: message.Headers{
			{Name: "Content-Length", Value: "999"},
			{Name: "X-Custom", Value: "yes"},
		},
	}

	ft := &fakeTransport{in: bytes.NewBuffer(nil)}
	if err := WriteRequest(ft, req); err != nil {
		t.Fatalf("WriteRequest failed: %v", err)
	}

	wire := ft.out.String()
	if !strings.HasPrefix(wire, "POST /submit HTTP/1.1\r\n") {
		t.Fatalf("unexpected request line in:\n%s", wire)
	}
	if !strings.Contains(wire, "Content-Length: 5\r\n") {
		t.Errorf("expected the engine's own Content-Length: 5, got:\n%s", wire)
	}
	if strings.Contains(wire, "Content-Length: 999") {
		t.Errorf("caller-supplied Content-Length should have been dropped:\n%s", wire)
	}
	if !strings.Contains(wire, "X-Custom: yes\r\n") {
		t.Errorf("expected caller header to survive:\n%s", wire)
	}
	if !strings.HasSuffix(wire, "abcde") {
		t.Errorf("expected body bytes appended verbatim, got:\n%s", wire)
	}
}

func TestReadStatusAndHeaders(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nX-Id: 7\r\n\r\n"
	r := bufio.NewReader(strings.NewReader(raw))
	status, headers, err := ReadStatusAndHeaders(r)
	if err != nil {
		t.Fatalf("ReadStatusAndHeaders failed: %v", err)
	}
	if status.Code != 200 || status.Reason != "OK" {
		t.Errorf("unexpected status: %+v", status)
	}
	if v, ok := headers.Get("Content-Type"); !ok || v != "text/plain" {
		t.Errorf("expected Content-Type text/plain, got %q, %v", v, ok)
	}
	if v, ok := headers.Get("x-id"); !ok || v != "7" {
		t.Errorf("expected case-insensitive header lookup to find X-Id: 7, got %q, %v", v, ok)
	}
}

func TestReadStatusAndHeaders_MalformedStatusLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("garbage\r\n\r\n"))
	if _, _, err := ReadStatusAndHeaders(r); err == nil {
		t.Error("expected error for malformed status line")
	}
}

func TestNewBodyReader_ContentLength(t *testing.T) {
	headers := message.Headers{{Name: "Content-Length", Value: "5"}}
	r := bufio.NewReader(strings.NewReader("abcdeXXXXX"))
	body := NewBodyReader(message.MethodGet, headers, r)
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "abcde" {
		t.Errorf("expected %q, got %q", "abcde", got)
	}
}

func TestNewBodyReader_HeadAlwaysEmpty(t *testing.T) {
	headers := message.Headers{{Name: "Content-Length", Value: "5"}}
	r := bufio.NewReader(strings.NewReader("abcde"))
	body := NewBodyReader(message.MethodHead, headers, r)
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty body for HEAD, got %q", got)
	}
}

func TestNewBodyReader_Chunked(t *testing.T) {
	raw := "5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
	headers := message.Headers{{Name: "Transfer-Encoding", Value: "chunked"}}
	r := bufio.NewReader(strings.NewReader(raw))
	body := NewBodyReader(message.MethodGet, headers, r)
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", got)
	}
}

func TestNewBodyReader_StreamToEOF(t *testing.T) {
	headers := message.Headers{}
	r := bufio.NewReader(strings.NewReader("no length header here"))
	body := NewBodyReader(message.MethodGet, headers, r)
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "no length header here" {
		t.Errorf("expected full stream, got %q", got)
	}
}

func TestMaybeDecompress_GzipContentEncoding(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("compressed payload"))
	gz.Close()

	headers := message.Headers{{Name: "Content-Encoding", Value: "gzip"}}
	reader, err := MaybeDecompress(headers, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("MaybeDecompress failed: %v", err)
	}
	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "compressed payload" {
		t.Errorf("expected decompressed payload, got %q", got)
	}
}

func TestMaybeDecompress_NoEncodingPassesThrough(t *testing.T) {
	headers := message.Headers{}
	reader, err := MaybeDecompress(headers, strings.NewReader("plain"))
	if err != nil {
		t.Fatalf("MaybeDecompress failed: %v", err)
	}
	got, _ := io.ReadAll(reader)
	if string(got) != "plain" {
		t.Errorf("expected passthrough, got %q", got)
	}
}

// TestRoundTrip_OverUnixSocket exercises the wire codec over a real
// transport.Unix connection (not the in-memory fakeTransport the other
// tests use), confirming Unix is a genuine Transport implementation
// the engine could drive, not just a standalone echo target.
func TestRoundTrip_OverUnixSocket(t *testing.T) {
	dir := t.TempDir()
	sockPath := dir + "/protocol.sock"

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer listener.Close()

	served := make(chan struct{})
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 1024)
		conn.Read(buf)
		conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nhi"))
		close(served)
	}()

	tr, err := transport.NewUnix()
	if err != nil {
		t.Fatalf("NewUnix failed: %v", err)
	}
	defer tr.Destroy()
	if err := tr.Connect(sockPath, 0); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	req := &message.Request{Method: message.MethodGet, Host: "local", Port: 0, Path: "/"}
	status, _, body, err := RoundTrip(tr, req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	<-served
	if status.Code != 200 {
		t.Errorf("expected status 200, got %d", status.Code)
	}
	got, _ := io.ReadAll(body)
	if string(got) != "hi" {
		t.Errorf("expected body %q, got %q", "hi", got)
	}
}

func TestRoundTrip(t *testing.T) {
	response := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nhi"
	ft := &fakeTransport{in: bytes.NewBufferString(response)}

	req := &message.Request{Method: message.MethodGet, Host: "example.com", Port: 80, Path: "/"}
	status, headers, body, err := RoundTrip(ft, req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if status.Code != 200 {
		t.Errorf("expected status 200, got %d", status.Code)
	}
	_ = headers
	got, _ := io.ReadAll(body)
	if string(got) != "hi" {
		t.Errorf("expected body %q, got %q", "hi", got)
	}
	if !strings.Contains(ft.out.String(), "GET / HTTP/1.1\r\n") {
		t.Errorf("expected request line written, got:\n%s", ft.out.String())
	}
}
