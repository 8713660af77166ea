package lsp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrProtocol reports a malformed frame on either stream.
var ErrProtocol = errors.New("lsp protocol error")

// MaxMessageSize bounds a single payload.
const MaxMessageSize = 64 << 20

// ReadMessage decodes one Content-Length framed payload. It returns io.EOF
// when the stream ends cleanly before the first header byte.
func ReadMessage(r *bufio.Reader) ([]byte, error) {
	contentLength := -1
	first := true
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && first && line == "" {
				return nil, io.EOF
			}
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: unexpected end of header block", ErrProtocol)
			}
			return nil, err
		}
		first = false
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "Content-Length") {
			value := strings.TrimSpace(parts[1])
			length, err := strconv.Atoi(value)
			if err != nil || length < 0 {
				return nil, fmt.Errorf("%w: invalid Content-Length %q", ErrProtocol, value)
			}
			contentLength = length
		}
	}
	if contentLength < 0 {
		return nil, fmt.Errorf("%w: missing Content-Length header", ErrProtocol)
	}
	if contentLength > MaxMessageSize {
		return nil, fmt.Errorf("%w: Content-Length %d exceeds %d", ErrProtocol, contentLength, MaxMessageSize)
	}
	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated payload: %w", ErrProtocol, io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	if !utf8.Valid(payload) {
		return nil, fmt.Errorf("%w: payload is not valid UTF-8", ErrProtocol)
	}
	return payload, nil
}

// WriteMessage frames payload and flushes w when it buffers.
func WriteMessage(w io.Writer, payload []byte) error {
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(payload))
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if flusher, ok := w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}
