// ABOUTME: Response decoding for the two encodings providers use: plain JSON and SSE frames.
// ABOUTME: Decoders form an ordered strategy list; the first one that yields an envelope wins.

package jsonrpc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoEnvelope is returned when no decoder could recover a JSON-RPC
// envelope from the payload.
var ErrNoEnvelope = errors.New("no JSON-RPC envelope in response")

const ssePrefix = "data: "

// Decoder attempts to extract a JSON-RPC response from a raw payload.
// A nil response with a nil error means "not mine, try the next decoder".
type Decoder func(body []byte) (*Response, error)

// DecodeResponse runs the decoder chain appropriate for the content type.
// SSE payloads are tried line by line: every "data: " line is parsed as
// JSON and the first line that forms a valid envelope is the response.
// Interleaved non-JSON data lines (keepalives, session paths) are skipped.
func DecodeResponse(body []byte, contentType string) (*Response, error) {
	decoders := []Decoder{decodeJSON, decodeSSE}
	if strings.Contains(contentType, "text/event-stream") {
		decoders = []Decoder{decodeSSE, decodeJSON}
	}
	for _, decode := range decoders {
		resp, err := decode(body)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			return resp, nil
		}
	}
	return nil, ErrNoEnvelope
}

// decodeJSON parses the whole body as a single JSON-RPC envelope.
func decodeJSON(body []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, nil
	}
	var resp Response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, nil
	}
	if resp.Result == nil && resp.Error == nil {
		return nil, nil
	}
	return &resp, nil
}

// decodeSSE scans "data: " lines and returns the first one that parses
// as a JSON-RPC envelope.
func decodeSSE(body []byte) (*Response, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, ssePrefix) {
			continue
		}
		payload := strings.TrimPrefix(line, ssePrefix)
		var resp Response
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			continue
		}
		if resp.Result == nil && resp.Error == nil {
			continue
		}
		return &resp, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

// ExtractSessionPath scans an SSE discovery frame for a session-scoped
// sub-path. Providers announce it as a bare "data: /v1/..." line ahead of
// any JSON payloads. Returns "" when no sub-path is present.
func ExtractSessionPath(body []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, ssePrefix) {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, ssePrefix))
		if strings.HasPrefix(payload, "/") && !strings.ContainsAny(payload, " \t{}") {
			return payload
		}
	}
	return ""
}
