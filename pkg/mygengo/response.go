package mygengo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Values of the opstat field.
const (
	OpstatOK    = "ok"
	OpstatError = "error"
)

// Params is the open payload of a call.
type Params map[string]any

// PathArgs supplies values for URL placeholders.
type PathArgs map[string]string

// Response is a decoded success envelope.
type Response struct {
	Opstat     string
	Payload    json.RawMessage
	StatusCode int
	Raw        []byte
	// Exchange is only set when the client runs in debug mode.
	Exchange *Exchange
}

// Exchange is the raw request/response pair of one call.
type Exchange struct {
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	Form       map[string]string `json:"form,omitempty"`
	StatusCode int               `json:"status_code"`
	Body       string            `json:"body"`
}

// Decode unmarshals the response payload into v.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Payload) == 0 {
		return fmt.Errorf("mygengo: response has no payload")
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("mygengo: decode payload: %w", err)
	}
	return nil
}

// Map decodes the payload as a generic object.
func (r *Response) Map() (map[string]any, error) {
	var out map[string]any
	if err := r.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

type envelope struct {
	Opstat   string          `json:"opstat"`
	Response json.RawMessage `json:"response"`
	Err      json.RawMessage `json:"err"`
}

type errorEntry struct {
	Code json.RawMessage `json:"code"`
	Msg  string          `json:"msg"`
}

// parseErr reads either a single {code, msg} object or the batch form
// {"job_key": [{code, msg}, ...]} and flattens it to one code and message.
func parseErr(raw json.RawMessage) (int, string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, ""
	}

	var single errorEntry
	if err := json.Unmarshal(raw, &single); err == nil && len(single.Code) > 0 {
		return parseCode(single.Code), single.Msg
	}

	var batch map[string][]errorEntry
	if err := json.Unmarshal(raw, &batch); err == nil && len(batch) > 0 {
		keys := make([]string, 0, len(batch))
		for k := range batch {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		code := 0
		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			for _, e := range batch[k] {
				if code == 0 {
					code = parseCode(e.Code)
				}
				msgs = append(msgs, k+": "+e.Msg)
			}
		}
		return code, strings.Join(msgs, "; ")
	}

	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return 0, msg
	}
	return 0, string(raw)
}

// parseCode accepts numeric or quoted codes.
func parseCode(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// ID decodes identifiers the API sends either as numbers or strings.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	*id = ID(b)
	return nil
}

func (id ID) String() string { return string(id) }

// JobDetail is the subset of job fields the API returns for a single job.
type JobDetail struct {
	JobID      ID     `json:"job_id"`
	OrderID    ID     `json:"order_id,omitempty"`
	Slug       string `json:"slug,omitempty"`
	BodySrc    string `json:"body_src,omitempty"`
	BodyTgt    string `json:"body_tgt,omitempty"`
	LcSrc      string `json:"lc_src,omitempty"`
	LcTgt      string `json:"lc_tgt,omitempty"`
	Tier       string `json:"tier,omitempty"`
	Status     string `json:"status,omitempty"`
	CustomData string `json:"custom_data,omitempty"`
}

// Job decodes a {"job": {...}} payload.
func (r *Response) Job() (JobDetail, error) {
	var wrapper struct {
		Job *JobDetail `json:"job"`
	}
	if err := r.Decode(&wrapper); err != nil {
		return JobDetail{}, err
	}
	if wrapper.Job == nil {
		return JobDetail{}, fmt.Errorf("mygengo: payload has no job")
	}
	return *wrapper.Job, nil
}
