package mygengo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Job types and tiers accepted by the API.
const (
	JobTypeText = "text"
	JobTypeFile = "file"

	TierMachine  = "machine"
	TierStandard = "standard"
	TierPro      = "pro"
	TierUltra    = "ultra"
)

// Actions accepted by updateTranslationJob.
const (
	ActionRevise  = "revise"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionArchive = "archive"
)

// Job is a translation request.
type Job struct {
	Type         string `json:"type"`
	Slug         string `json:"slug,omitempty"`
	BodySrc      string `json:"body_src,omitempty"`
	LcSrc        string `json:"lc_src"`
	LcTgt        string `json:"lc_tgt"`
	Tier         string `json:"tier"`
	AutoApprove  int    `json:"auto_approve"`
	Comment      string `json:"comment,omitempty"`
	CustomData   string `json:"custom_data,omitempty"`
	CallbackURL  string `json:"callback_url,omitempty"`
	Force        int    `json:"force,omitempty"`
	UsePreferred int    `json:"use_preferred,omitempty"`
	GlossaryID   string `json:"glossary_id,omitempty"`
	Identifier   string `json:"identifier,omitempty"`
	FileKey      string `json:"file_key,omitempty"`
	// FilePath is read and uploaded by PostJobsWithFiles; it is never sent.
	FilePath string `json:"-"`
}

// JobAction is the body of updateTranslationJob.
type JobAction struct {
	Action        string `json:"action"`
	Comment       string `json:"comment,omitempty"`
	Rating        int    `json:"rating,omitempty"`
	ForTranslator string `json:"for_translator,omitempty"`
	ForMygengo    string `json:"for_mygengo,omitempty"`
	Public        int    `json:"public,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Captcha       string `json:"captcha,omitempty"`
}

// JobsQuery filters getTranslationJobs.
type JobsQuery struct {
	Status         string
	TimestampAfter int64
	Count          int
}

func (q JobsQuery) params() Params {
	p := Params{}
	if q.Status != "" {
		p["status"] = q.Status
	}
	if q.TimestampAfter > 0 {
		p["timestamp_after"] = q.TimestampAfter
	}
	if q.Count > 0 {
		p["count"] = q.Count
	}
	return p
}

func idArgs(id string) PathArgs { return PathArgs{"id": id} }

// toParams converts a tagged struct into a payload map.
func toParams(v any) (Params, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var p Params
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) call(ctx context.Context, m Method, params Params, args PathArgs) (*Response, error) {
	return c.Call(ctx, string(m), params, args)
}

func (c *Client) AccountStats(ctx context.Context) (*Response, error) {
	return c.call(ctx, GetAccountStats, nil, nil)
}

func (c *Client) AccountBalance(ctx context.Context) (*Response, error) {
	return c.call(ctx, GetAccountBalance, nil, nil)
}

func (c *Client) ServiceLanguages(ctx context.Context) (*Response, error) {
	return c.call(ctx, GetServiceLanguages, nil, nil)
}

// ServiceLanguagePairs lists supported pairs, optionally restricted to a source language.
func (c *Client) ServiceLanguagePairs(ctx context.Context, lcSrc string) (*Response, error) {
	var p Params
	if lcSrc != "" {
		p = Params{"lc_src": lcSrc}
	}
	return c.call(ctx, GetServiceLanguagePairs, p, nil)
}

// TranslationQuote prices a set of jobs keyed by caller-chosen names.
func (c *Client) TranslationQuote(ctx context.Context, jobs map[string]Job) (*Response, error) {
	return c.call(ctx, DetermineTranslationCost, Params{PayloadJobs: jobs}, nil)
}

func (c *Client) GlossaryList(ctx context.Context) (*Response, error) {
	return c.call(ctx, GetGlossaryList, nil, nil)
}

func (c *Client) Glossary(ctx context.Context, id string) (*Response, error) {
	return c.call(ctx, GetGlossary, nil, idArgs(id))
}

// PostJob submits a single job.
func (c *Client) PostJob(ctx context.Context, job Job) (*Response, error) {
	p, err := toParams(job)
	if err != nil {
		return nil, fmt.Errorf("mygengo: encode job: %w", err)
	}
	return c.call(ctx, PostTranslationJob, p, nil)
}

// PostJobs submits a batch of jobs keyed by caller-chosen names.
func (c *Client) PostJobs(ctx context.Context, jobs map[string]Job, asGroup bool) (*Response, error) {
	p := Params{PayloadJobs: jobs}
	if asGroup {
		p["as_group"] = 1
	}
	return c.call(ctx, PostTranslationJobs, p, nil)
}

// PostJobsWithFiles submits a batch where file jobs carry a FilePath. Each
// file is uploaded as multipart field file_<key> and referenced from its job
// through file_key.
func (c *Client) PostJobsWithFiles(ctx context.Context, jobs map[string]Job, asGroup bool) (*Response, error) {
	keys := make([]string, 0, len(jobs))
	for k := range jobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]Job, len(jobs))
	var files []File
	for _, k := range keys {
		job := jobs[k]
		if job.FilePath != "" {
			f, err := os.Open(job.FilePath)
			if err != nil {
				return nil, fmt.Errorf("mygengo: open file for job %q: %w", k, err)
			}
			defer f.Close()

			job.Type = JobTypeFile
			job.FileKey = "file_" + k
			files = append(files, File{Param: job.FileKey, Name: filepath.Base(job.FilePath), Reader: f})
		}
		out[k] = job
	}

	p := Params{PayloadJobs: out}
	if asGroup {
		p["as_group"] = 1
	}
	return c.CallFiles(ctx, string(PostTranslationJobs), p, nil, files)
}

func (c *Client) Job(ctx context.Context, id string) (*Response, error) {
	return c.call(ctx, GetTranslationJob, nil, idArgs(id))
}

// Jobs lists recent jobs.
func (c *Client) Jobs(ctx context.Context, q JobsQuery) (*Response, error) {
	return c.call(ctx, GetTranslationJobs, q.params(), nil)
}

func (c *Client) JobBatch(ctx context.Context, id string) (*Response, error) {
	return c.call(ctx, GetTranslationJobBatch, nil, idArgs(id))
}

func (c *Client) JobGroup(ctx context.Context, id string) (*Response, error) {
	return c.call(ctx, GetTranslationJobGroup, nil, idArgs(id))
}

func (c *Client) OrderJobs(ctx context.Context, orderID string) (*Response, error) {
	return c.call(ctx, GetTranslationOrderJobs, nil, idArgs(orderID))
}

func (c *Client) JobComments(ctx context.Context, id string) (*Response, error) {
	return c.call(ctx, GetTranslationJobComments, nil, idArgs(id))
}

func (c *Client) PostJobComment(ctx context.Context, id, body string) (*Response, error) {
	if body == "" {
		return nil, &MissingParamError{Method: string(PostTranslationJobComment), Param: "body"}
	}
	return c.call(ctx, PostTranslationJobComment, Params{"body": body}, idArgs(id))
}

func (c *Client) JobFeedback(ctx context.Context, id string) (*Response, error) {
	return c.call(ctx, GetTranslationJobFeedback, nil, idArgs(id))
}

func (c *Client) JobRevisions(ctx context.Context, id string) (*Response, error) {
	return c.call(ctx, GetTranslationJobRevisions, nil, idArgs(id))
}

func (c *Client) JobRevision(ctx context.Context, id string, revisionID int64) (*Response, error) {
	return c.call(ctx, GetTranslationJobRevision, nil, PathArgs{
		"id":          id,
		"revision_id": strconv.FormatInt(revisionID, 10),
	})
}

// UpdateJob applies a status transition such as approve or revise.
func (c *Client) UpdateJob(ctx context.Context, id string, action JobAction) (*Response, error) {
	if action.Action == "" {
		return nil, &MissingParamError{Method: string(UpdateTranslationJob), Param: PayloadAction}
	}
	p, err := toParams(action)
	if err != nil {
		return nil, fmt.Errorf("mygengo: encode action: %w", err)
	}
	return c.call(ctx, UpdateTranslationJob, p, idArgs(id))
}

func (c *Client) DeleteJob(ctx context.Context, id string) (*Response, error) {
	return c.call(ctx, DeleteTranslationJob, nil, idArgs(id))
}

// JobPreviewImage returns the raw preview image bytes.
func (c *Client) JobPreviewImage(ctx context.Context, id string) ([]byte, error) {
	return c.CallBinary(ctx, string(GetTranslationJobPreviewImage), idArgs(id))
}
