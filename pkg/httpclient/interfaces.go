package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// File is a multipart attachment sent under the given form field.
type File struct {
	Param  string
	Name   string
	Reader io.Reader
}

// Request describes a single outgoing call. Form and Files are only sent for
// verbs that carry a body; Files switch the body to multipart encoding.
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Form    map[string]string
	Files   []File
	Headers map[string]string
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}
