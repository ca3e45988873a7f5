package transport

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBody caps how much of a response body is read.
const maxResponseBody = 1 << 20

const (
	msgNoResponse      = "error connecting to the lead capture server"
	msgConnectionError = "lead capture connection error"
)

// Kind classifies the response to a POST.
type Kind int

const (
	// Success means the server answered 2xx.
	Success Kind = iota

	// NotFound means the server answered 404.
	NotFound

	// Error means any other status, or no response at all.
	Error
)

// String returns the label used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case NotFound:
		return "not_found"
	default:
		return "error"
	}
}

// Outcome is the classified result of one POST.
type Outcome struct {
	Kind       Kind
	StatusCode int

	// Body is the response text of a 200 or 201 with a non-empty body.
	Body string

	// NoContent is set for a 204; Body is always empty then.
	NoContent bool

	// Message is the error detail of an Error outcome: the raw response body
	// when there is one, a synthesized message otherwise.
	Message string

	Latency time.Duration
}

// HasBody reports whether a successful response carried a body.
func (o Outcome) HasBody() bool {
	return o.Kind == Success && o.Body != ""
}

// Classify maps an HTTP response to an Outcome. The returned error is set
// only when reading the body fails.
//
// Classification:
//   - 204 → Success with NoContent, body ignored
//   - 200, 201 with a body → Success carrying the body
//   - other 2xx → Success without body
//   - 404 → NotFound
//   - anything else → Error carrying the body, or a synthesized message
//   - nil response → Error
func Classify(resp *http.Response) (Outcome, error) {
	if resp == nil {
		return Outcome{Kind: Error, Message: msgNoResponse}, nil
	}

	code := resp.StatusCode
	out := Outcome{StatusCode: code}

	switch {
	case code == http.StatusNoContent:
		out.Kind = Success
		out.NoContent = true
		return out, nil

	case code >= 200 && code < 300:
		out.Kind = Success
		if (code == http.StatusOK || code == http.StatusCreated) && resp.ContentLength != 0 {
			body, err := readBody(resp)
			if err != nil {
				return out, err
			}
			out.Body = body
		}
		return out, nil

	case code == http.StatusNotFound:
		out.Kind = NotFound
		return out, nil
	}

	out.Kind = Error
	body, err := readBody(resp)
	if err != nil {
		return out, err
	}
	if body != "" {
		out.Message = body
	} else {
		out.Message = fmt.Sprintf("%s: status %d", msgConnectionError, code)
	}
	return out, nil
}

func readBody(resp *http.Response) (string, error) {
	if resp.Body == nil || resp.Body == http.NoBody {
		return "", nil
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(raw), nil
}
