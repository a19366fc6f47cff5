package mygengo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/samvad-hq/gengo-go/pkg/httpclient"
)

const dataField = "data"

// File is a multipart attachment for write calls.
type File = httpclient.File

// Call invokes the named operation and returns the decoded success envelope.
func (c *Client) Call(ctx context.Context, method string, params Params, args PathArgs) (*Response, error) {
	return c.CallFiles(ctx, method, params, args, nil)
}

// CallFiles is Call with multipart attachments. Authentication stays on the
// query string; the payload travels in the data form field.
func (c *Client) CallFiles(ctx context.Context, method string, params Params, args PathArgs, files []File) (*Response, error) {
	d, req, err := c.prepare(method, params, args, files)
	if err != nil {
		return nil, err
	}
	if d.Binary {
		return nil, fmt.Errorf("mygengo: %s returns binary content, use CallBinary", d.Name)
	}

	resp, err := c.send(ctx, d, req)
	if err != nil {
		return nil, err
	}
	return c.decode(d, req, resp)
}

// CallBinary invokes an operation whose success body is not JSON, such as
// the job preview image. JSON bodies are still checked for an error envelope.
func (c *Client) CallBinary(ctx context.Context, method string, args PathArgs) ([]byte, error) {
	d, req, err := c.prepare(method, nil, args, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, d, req)
	if err != nil {
		return nil, err
	}
	if strings.Contains(strings.ToLower(resp.Header().Get("Content-Type")), "json") {
		if _, err := c.decode(d, req, resp); err != nil {
			return nil, err
		}
		return resp.Body(), nil
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, &APIError{
			Method:     string(d.Name),
			StatusCode: resp.StatusCode(),
			Message:    bodySnippet(resp.Body()),
		}
	}
	return resp.Body(), nil
}

// prepare performs every check that must pass before the network is touched.
func (c *Client) prepare(method string, params Params, args PathArgs, files []File) (Descriptor, httpclient.Request, error) {
	d, err := Lookup(method)
	if err != nil {
		return Descriptor{}, httpclient.Request{}, err
	}
	path, err := ResolvePath(d, args)
	if err != nil {
		return Descriptor{}, httpclient.Request{}, err
	}
	if d.Write() && len(params) == 0 {
		return Descriptor{}, httpclient.Request{}, &MissingParamError{Method: string(d.Name), Param: d.Payload}
	}
	if len(files) > 0 && !d.Write() {
		return Descriptor{}, httpclient.Request{}, fmt.Errorf("mygengo: %s does not accept file uploads", d.Name)
	}
	if err := c.creds.Validate(); err != nil {
		return Descriptor{}, httpclient.Request{}, err
	}

	query := c.creds.AuthParams(c.now())
	req := httpclient.Request{
		Method: d.Verb,
		URL:    c.baseURL + path,
		Query:  query,
		Headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": c.userAgent,
		},
	}

	if d.Write() {
		data, err := encodePayload(d, params)
		if err != nil {
			return Descriptor{}, httpclient.Request{}, fmt.Errorf("mygengo: %s: encode payload: %w", d.Name, err)
		}
		req.Form = map[string]string{dataField: data}
		req.Files = files
		return d, req, nil
	}

	for _, k := range sortedKeys(params) {
		if _, reserved := reservedParams[k]; reserved {
			return Descriptor{}, httpclient.Request{}, fmt.Errorf("mygengo: %s: parameter %q is reserved for request signing", d.Name, k)
		}
		v, err := queryValue(params[k])
		if err != nil {
			return Descriptor{}, httpclient.Request{}, fmt.Errorf("mygengo: %s: encode parameter %q: %w", d.Name, k, err)
		}
		query.Set(k, v)
	}
	return d, req, nil
}

func (c *Client) send(ctx context.Context, d Descriptor, req httpclient.Request) (httpclient.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, &TransportError{Method: string(d.Name), Op: "send request", Err: err}
	}
	return resp, nil
}

func (c *Client) decode(d Descriptor, req httpclient.Request, resp httpclient.Response) (*Response, error) {
	body := resp.Body()
	status := resp.StatusCode()

	var exchange *Exchange
	if c.debug {
		exchange = &Exchange{
			Method:     req.Method,
			URL:        req.URL + "?" + req.Query.Encode(),
			Form:       req.Form,
			StatusCode: status,
			Body:       string(body),
		}
		c.log.DebugObj("gengo exchange", "gengo_exchange", exchange)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &TransportError{
			Method: string(d.Name),
			Op:     "decode response",
			Err:    fmt.Errorf("http %d: %w: %s", status, err, bodySnippet(body)),
		}
	}

	if env.Opstat != OpstatOK {
		code, msg := parseErr(env.Err)
		if msg == "" {
			msg = "request rejected"
			if env.Opstat == "" {
				msg = "response has no opstat"
			}
		}
		return nil, &APIError{
			Method:     string(d.Name),
			StatusCode: status,
			Opstat:     env.Opstat,
			Code:       code,
			Message:    msg,
		}
	}

	return &Response{
		Opstat:     env.Opstat,
		Payload:    env.Response,
		StatusCode: status,
		Raw:        body,
		Exchange:   exchange,
	}, nil
}

// encodePayload renders the data field. The job payload is wrapped as
// {"job": params} unless the caller already did so.
func encodePayload(d Descriptor, params Params) (string, error) {
	var body any = params
	if d.Payload == PayloadJob {
		if _, wrapped := params[PayloadJob]; !wrapped {
			body = map[string]any{PayloadJob: map[string]any(params)}
		}
	}
	return compactJSON(body)
}

func compactJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// queryValue flattens a parameter for the query string; structured values
// are sent as JSON text.
func queryValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		if val {
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		return compactJSON(val)
	}
}

func sortedKeys(p Params) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func bodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}

// IsAuthError reports whether err is an authentication rejection.
func IsAuthError(err error) bool { return errors.Is(err, ErrAuth) }

// ResolveURL returns the full request URL for a method without signing it.
func (c *Client) ResolveURL(method string, args PathArgs) (string, error) {
	d, err := Lookup(method)
	if err != nil {
		return "", err
	}
	path, err := ResolvePath(d, args)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("mygengo: %s: parse url: %w", d.Name, err)
	}
	return u.String(), nil
}
