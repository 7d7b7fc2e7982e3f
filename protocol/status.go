package protocol

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/nczempin/httpstream/errors"
	"github.com/nczempin/httpstream/message"
)

// readCRLFLine reads one line delimited by CRLF, stripping the
// terminator. Parser failures surface as a protocol error carrying the
// parsing stage.
func readCRLFLine(r *bufio.Reader, stage string) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", errors.NewProtocolError(stage, err)
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// ReadStatusAndHeaders reads the response status line and headers from
// r: "HTTP/<v> SP <code> SP <reason> CRLF", then "Name: Value CRLF"
// lines until a blank line.
func ReadStatusAndHeaders(r *bufio.Reader) (message.Status, message.Headers, error) {
	statusLine, err := readCRLFLine(r, "Status line")
	if err != nil {
		return message.Status{}, nil, err
	}

	parts := strings.SplitN(statusLine, " ", 3)
	if len(parts) < 2 {
		return message.Status{}, nil, errors.NewProtocolError("Status line", nil)
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return message.Status{}, nil, errors.NewProtocolError("Status line", err)
	}
	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}
	status := message.Status{Code: code, Reason: reason}

	var headers message.Headers
	for {
		line, err := readCRLFLine(r, "Header line")
		if err != nil {
			return message.Status{}, nil, err
		}
		if line == "" {
			break
		}
		name, value, ok := splitHeaderLine(line)
		if !ok {
			return message.Status{}, nil, errors.NewProtocolError("Header line", nil)
		}
		headers = append(headers, message.Header{Name: name, Value: value})
	}

	return status, headers, nil
}

func splitHeaderLine(line string) (name, value string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	name = line[:idx]
	value = strings.TrimLeft(line[idx+1:], " \t")
	return name, value, true
}
