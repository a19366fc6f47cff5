package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/gengo-go/internal/storage"
	"github.com/samvad-hq/gengo-go/pkg/mygengo"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_sig") == "" {
			t.Errorf("request %s %s is not signed", r.Method, r.URL.Path)
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/account/balance":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"opstat":"ok","response":{"credits":"25.32","currency":"USD"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/translate/job":
			if err := r.ParseForm(); err != nil || !strings.Contains(r.PostForm.Get("data"), `"job":{`) {
				t.Errorf("unexpected job form: %v %q", err, r.PostForm.Get("data"))
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"opstat":"ok","response":{"job":{"job_id":101,"status":"available","credits":"0.05"}}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/translate/jobs":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"opstat":"ok","response":{"jobs":[{"a":{"job_id":"201","status":"queued"}},{"b":{"job_id":"202"}}]}}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/translate/job/101":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"opstat":"ok","response":{}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/translate/job/101/preview":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte{0xff, 0xd8, 0xff})
		default:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"opstat":"error","err":{"code":2450,"msg":"not found"}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestInvoker(t *testing.T, out *bytes.Buffer) (*Invoker, storage.Store) {
	t.Helper()
	srv := fakeAPI(t)
	client := mygengo.New(mygengo.Credentials{PublicKey: "pub", PrivateKey: "priv"}, mygengo.WithBaseURL(srv.URL))
	store, err := storage.NewStore("bbolt", filepath.Join(t.TempDir(), "jobs.db"), storage.Options{JobTTL: time.Hour, CleanupInterval: time.Hour})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewInvoker(client, store, out, nil), store
}

func TestParseInvocationSplitsPathArgs(t *testing.T) {
	inv, err := ParseInvocation("getTranslationJobRevision", []string{"id=7", "revision_id=3", "pre_mt=1"}, "", nil)
	if err != nil {
		t.Fatalf("ParseInvocation: %v", err)
	}
	if inv.Args["id"] != "7" || inv.Args["revision_id"] != "3" {
		t.Fatalf("args = %#v", inv.Args)
	}
	if inv.Params["pre_mt"] != "1" {
		t.Fatalf("params = %#v", inv.Params)
	}
}

func TestParseInvocationMergesData(t *testing.T) {
	inv, err := ParseInvocation("postTranslationJob", []string{"tier=pro", `custom={"a":1}`}, `{"body_src":"hello","tier":"standard"}`, []string{"file_a=./a.txt"})
	if err != nil {
		t.Fatalf("ParseInvocation: %v", err)
	}
	if inv.Params["body_src"] != "hello" || inv.Params["tier"] != "pro" {
		t.Fatalf("params = %#v", inv.Params)
	}
	if _, ok := inv.Params["custom"].(map[string]any); !ok {
		t.Fatalf("expected structured custom value, got %#v", inv.Params["custom"])
	}
	if len(inv.Files) != 1 || inv.Files[0].Field != "file_a" || inv.Files[0].Path != "./a.txt" {
		t.Fatalf("files = %#v", inv.Files)
	}
}

func TestParseInvocationErrors(t *testing.T) {
	if _, err := ParseInvocation("getTranslationJobz", nil, "", nil); !errors.Is(err, mygengo.ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
	if _, err := ParseInvocation("getAccountStats", []string{"novalue"}, "", nil); err == nil {
		t.Fatalf("expected error for bare argument")
	}
	if _, err := ParseInvocation("postTranslationJob", nil, "{not json", nil); err == nil {
		t.Fatalf("expected error for bad --data")
	}
	if _, err := ParseInvocation("postTranslationJobs", nil, "", []string{"nopath"}); err == nil {
		t.Fatalf("expected error for bad --file")
	}
}

func TestInvokerPrintsPayload(t *testing.T) {
	var out bytes.Buffer
	inv, _ := newTestInvoker(t, &out)

	call, err := ParseInvocation("getAccountBalance", nil, "", nil)
	if err != nil {
		t.Fatalf("ParseInvocation: %v", err)
	}
	if err := inv.Run(context.Background(), call); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), `"credits": "25.32"`) {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestInvokerTracksCreatedAndDeletedJobs(t *testing.T) {
	var out bytes.Buffer
	inv, store := newTestInvoker(t, &out)
	ctx := context.Background()

	post, _ := ParseInvocation("postTranslationJob", []string{"body_src=hi", "lc_src=en", "lc_tgt=ja", "tier=standard"}, "", nil)
	if err := inv.Run(ctx, post); err != nil {
		t.Fatalf("post: %v", err)
	}
	status, found, err := store.JobStatus("101")
	if err != nil || !found || status != "available" {
		t.Fatalf("ledger after post: %q %v %v", status, found, err)
	}

	batch, _ := ParseInvocation("postTranslationJobs", nil, `{"jobs":{"a":{"body_src":"x"}}}`, nil)
	if err := inv.Run(ctx, batch); err != nil {
		t.Fatalf("post batch: %v", err)
	}
	if status, found, _ := store.JobStatus("202"); !found || status != "queued" {
		t.Fatalf("batch job without status should default to queued, got %q %v", status, found)
	}

	del, _ := ParseInvocation("deleteTranslationJob", []string{"id=101"}, "", nil)
	if err := inv.Run(ctx, del); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := store.JobStatus("101"); found {
		t.Fatalf("deleted job should be forgotten")
	}
}

func TestInvokerWritesBinaryToFile(t *testing.T) {
	var out bytes.Buffer
	inv, _ := newTestInvoker(t, &out)

	path := filepath.Join(t.TempDir(), "preview.jpg")
	call, _ := ParseInvocation("getTranslationJobPreviewImage", []string{"id=101"}, "", nil)
	call.OutPath = path
	if err := inv.Run(context.Background(), call); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, []byte{0xff, 0xd8, 0xff}) {
		t.Fatalf("unexpected bytes %v", got)
	}
}

func TestInvokerDryRun(t *testing.T) {
	var out bytes.Buffer
	inv, _ := newTestInvoker(t, &out)

	call, _ := ParseInvocation("getTranslationJobComments", []string{"id=55"}, "", nil)
	call.DryRun = true
	if err := inv.Run(context.Background(), call); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(out.String(), "GET ") || !strings.Contains(out.String(), "/translate/job/55/comments") {
		t.Fatalf("unexpected dry run output %q", out.String())
	}
}

func TestInvokerReportsAPIErrors(t *testing.T) {
	var out bytes.Buffer
	inv, _ := newTestInvoker(t, &out)

	call, _ := ParseInvocation("getTranslationJob", []string{"id=999"}, "", nil)
	err := inv.Run(context.Background(), call)
	if !errors.Is(err, mygengo.ErrAPI) {
		t.Fatalf("expected ErrAPI, got %v", err)
	}
	if code := ExitCode(err); code != 4 {
		t.Fatalf("exit code = %d", code)
	}
}

func TestCreatedJobsShapes(t *testing.T) {
	cases := map[string]int{
		`{"job":{"job_id":1,"status":"available"}}`:             1,
		`{"jobs":[{"a":{"job_id":2}},{"b":{"job_id":3}}]}`:      2,
		`{"jobs":{"a":{"job_id":"4"},"b":{"job_id":"5"}}}`:      2,
		`{"order_id":"77","job_count":2,"credits_used":"1.00"}`: 0,
	}
	for payload, want := range cases {
		if got := len(createdJobs([]byte(payload))); got != want {
			t.Fatalf("createdJobs(%s) = %d, want %d", payload, got, want)
		}
	}
}

func TestListMethods(t *testing.T) {
	var out bytes.Buffer
	if err := ListMethods(&out); err != nil {
		t.Fatalf("ListMethods: %v", err)
	}
	text := out.String()
	for _, want := range []string{"METHOD", "postTranslationJob", "/translate/job/{{id}}/preview", "(binary)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("listing missing %q:\n%s", want, text)
		}
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Fatalf("nil error should exit 0")
	}
	if ExitCode(&mygengo.APIError{Code: 1100}) != 3 {
		t.Fatalf("auth error should exit 3")
	}
	if ExitCode(&mygengo.MissingParamError{Method: "m", Param: "id"}) != 2 {
		t.Fatalf("usage error should exit 2")
	}
	if ExitCode(errors.New("other")) != 1 {
		t.Fatalf("generic error should exit 1")
	}
}
