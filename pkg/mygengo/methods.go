package mygengo

import (
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Method is the API name of an operation.
type Method string

const (
	GetAccountStats               Method = "getAccountStats"
	GetAccountBalance             Method = "getAccountBalance"
	GetServiceLanguages           Method = "getServiceLanguages"
	GetServiceLanguagePairs       Method = "getServiceLanguagePairs"
	DetermineTranslationCost      Method = "determineTranslationCost"
	GetGlossaryList               Method = "getGlossaryList"
	GetGlossary                   Method = "getGlossary"
	PostTranslationJob            Method = "postTranslationJob"
	PostTranslationJobs           Method = "postTranslationJobs"
	GetTranslationJob             Method = "getTranslationJob"
	GetTranslationJobs            Method = "getTranslationJobs"
	GetTranslationJobBatch        Method = "getTranslationJobBatch"
	GetTranslationJobGroup        Method = "getTranslationJobGroup"
	GetTranslationOrderJobs       Method = "getTranslationOrderJobs"
	GetTranslationJobComments     Method = "getTranslationJobComments"
	PostTranslationJobComment     Method = "postTranslationJobComment"
	GetTranslationJobFeedback     Method = "getTranslationJobFeedback"
	GetTranslationJobRevisions    Method = "getTranslationJobRevisions"
	GetTranslationJobRevision     Method = "getTranslationJobRevision"
	UpdateTranslationJob          Method = "updateTranslationJob"
	DeleteTranslationJob          Method = "deleteTranslationJob"
	GetTranslationJobPreviewImage Method = "getTranslationJobPreviewImage"
)

// Payload keys select how a write payload is wrapped into the data field.
const (
	PayloadJob     = "job"
	PayloadJobs    = "jobs"
	PayloadComment = "comment"
	PayloadAction  = "action"
)

// Descriptor maps an operation to its verb and URL template.
type Descriptor struct {
	Name       Method
	Verb       string
	Path       string
	PathParams []string
	// Payload names the required write payload; empty for reads and deletes.
	Payload string
	// Binary responses are returned raw instead of decoded as JSON.
	Binary bool
}

// Write reports whether the operation sends a data body.
func (d Descriptor) Write() bool {
	return d.Verb == http.MethodPost || d.Verb == http.MethodPut
}

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

func describe(name Method, verb, path, payload string) Descriptor {
	d := Descriptor{Name: name, Verb: verb, Path: path, Payload: payload}
	for _, m := range placeholderRe.FindAllStringSubmatch(path, -1) {
		d.PathParams = append(d.PathParams, m[1])
	}
	return d
}

var descriptors = func() map[Method]Descriptor {
	list := []Descriptor{
		describe(GetAccountStats, http.MethodGet, "/account/stats", ""),
		describe(GetAccountBalance, http.MethodGet, "/account/balance", ""),
		describe(GetServiceLanguages, http.MethodGet, "/translate/service/languages", ""),
		describe(GetServiceLanguagePairs, http.MethodGet, "/translate/service/language_pairs", ""),
		describe(DetermineTranslationCost, http.MethodPost, "/translate/service/quote", PayloadJobs),
		describe(GetGlossaryList, http.MethodGet, "/translate/glossary", ""),
		describe(GetGlossary, http.MethodGet, "/translate/glossary/{{id}}", ""),
		describe(PostTranslationJob, http.MethodPost, "/translate/job", PayloadJob),
		describe(PostTranslationJobs, http.MethodPost, "/translate/jobs", PayloadJobs),
		describe(GetTranslationJob, http.MethodGet, "/translate/job/{{id}}", ""),
		describe(GetTranslationJobs, http.MethodGet, "/translate/jobs", ""),
		describe(GetTranslationJobBatch, http.MethodGet, "/translate/jobs/{{id}}", ""),
		describe(GetTranslationJobGroup, http.MethodGet, "/translate/jobs/group/{{id}}", ""),
		describe(GetTranslationOrderJobs, http.MethodGet, "/translate/order/{{id}}", ""),
		describe(GetTranslationJobComments, http.MethodGet, "/translate/job/{{id}}/comments", ""),
		describe(PostTranslationJobComment, http.MethodPost, "/translate/job/{{id}}/comment", PayloadComment),
		describe(GetTranslationJobFeedback, http.MethodGet, "/translate/job/{{id}}/feedback", ""),
		describe(GetTranslationJobRevisions, http.MethodGet, "/translate/job/{{id}}/revisions", ""),
		describe(GetTranslationJobRevision, http.MethodGet, "/translate/job/{{id}}/revision/{{revision_id}}", ""),
		describe(UpdateTranslationJob, http.MethodPut, "/translate/job/{{id}}", PayloadAction),
		describe(DeleteTranslationJob, http.MethodDelete, "/translate/job/{{id}}", ""),
	}
	preview := describe(GetTranslationJobPreviewImage, http.MethodGet, "/translate/job/{{id}}/preview", "")
	preview.Binary = true
	list = append(list, preview)

	out := make(map[Method]Descriptor, len(list))
	for _, d := range list {
		out[d.Name] = d
	}
	return out
}()

// Lookup returns the descriptor registered under name.
func Lookup(name string) (Descriptor, error) {
	d, ok := descriptors[Method(strings.TrimSpace(name))]
	if !ok {
		return Descriptor{}, &UnknownMethodError{Method: name}
	}
	return d, nil
}

// Methods returns every descriptor sorted by name.
func Methods() []Descriptor {
	out := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResolvePath substitutes args into the descriptor's URL template.
func ResolvePath(d Descriptor, args PathArgs) (string, error) {
	path := d.Path
	for _, name := range d.PathParams {
		v := strings.TrimSpace(args[name])
		if v == "" {
			return "", &MissingParamError{Method: string(d.Name), Param: name}
		}
		path = strings.ReplaceAll(path, "{{"+name+"}}", url.PathEscape(v))
	}
	if m := placeholderRe.FindStringSubmatch(path); m != nil {
		return "", &MissingParamError{Method: string(d.Name), Param: m[1]}
	}
	return path, nil
}
