package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/samvad-hq/gengo-go/internal/domain"
	"github.com/samvad-hq/gengo-go/internal/logger"
	"github.com/samvad-hq/gengo-go/internal/storage"
	"github.com/samvad-hq/gengo-go/pkg/mygengo"
)

// FileArg is a --file field=path argument.
type FileArg struct {
	Field string
	Path  string
}

// Invocation is one command-line call of an API method.
type Invocation struct {
	Method  string
	Params  mygengo.Params
	Args    mygengo.PathArgs
	Files   []FileArg
	OutPath string
	DryRun  bool
}

// ParseInvocation sorts key=value pairs into path arguments and parameters.
// Keys naming a path placeholder of the method fill the path, everything else
// becomes a parameter. data is a JSON object merged in before the pairs.
func ParseInvocation(method string, pairs []string, data string, files []string) (Invocation, error) {
	d, err := mygengo.Lookup(method)
	if err != nil {
		return Invocation{}, err
	}

	inv := Invocation{
		Method: string(d.Name),
		Params: mygengo.Params{},
		Args:   mygengo.PathArgs{},
	}

	if data = strings.TrimSpace(data); data != "" {
		if err := json.Unmarshal([]byte(data), &inv.Params); err != nil {
			return Invocation{}, fmt.Errorf("parse --data: %w", err)
		}
	}

	placeholders := make(map[string]struct{}, len(d.PathParams))
	for _, p := range d.PathParams {
		placeholders[p] = struct{}{}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return Invocation{}, fmt.Errorf("argument %q is not key=value", pair)
		}
		if _, isPath := placeholders[key]; isPath {
			inv.Args[key] = value
			continue
		}
		inv.Params[key] = parseValue(value)
	}

	for _, f := range files {
		field, path, ok := strings.Cut(f, "=")
		field, path = strings.TrimSpace(field), strings.TrimSpace(path)
		if !ok || field == "" || path == "" {
			return Invocation{}, fmt.Errorf("--file %q is not field=path", f)
		}
		inv.Files = append(inv.Files, FileArg{Field: field, Path: path})
	}

	if len(inv.Params) == 0 {
		inv.Params = nil
	}
	return inv, nil
}

// parseValue keeps JSON objects and arrays structured; every other value is a string.
func parseValue(v string) any {
	trimmed := strings.TrimSpace(v)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var out any
		if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
			return out
		}
	}
	return v
}

// Invoker runs invocations against the API and records created jobs.
type Invoker struct {
	client *mygengo.Client
	store  storage.Store
	out    io.Writer
	log    logger.Logger
}

// NewInvoker wires an invoker. out receives the JSON result.
func NewInvoker(client *mygengo.Client, store storage.Store, out io.Writer, log logger.Logger) *Invoker {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if out == nil {
		out = os.Stdout
	}
	return &Invoker{client: client, store: store, out: out, log: log}
}

// Run performs inv and writes the response payload to the output.
func (i *Invoker) Run(ctx context.Context, inv Invocation) error {
	if i == nil || i.client == nil {
		return fmt.Errorf("invoker is not initialized")
	}
	d, err := mygengo.Lookup(inv.Method)
	if err != nil {
		return err
	}

	if inv.DryRun {
		u, err := i.client.ResolveURL(inv.Method, inv.Args)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(i.out, "%s %s\n", d.Verb, u)
		return err
	}

	if d.Binary {
		return i.runBinary(ctx, inv)
	}

	files, closeFiles, err := openFiles(inv.Files)
	if err != nil {
		return err
	}
	defer closeFiles()

	resp, err := i.client.CallFiles(ctx, inv.Method, inv.Params, inv.Args, files)
	if err != nil {
		return err
	}
	i.record(d.Name, inv, resp)

	return i.writeJSON(inv.OutPath, resp.Payload)
}

func (i *Invoker) runBinary(ctx context.Context, inv Invocation) error {
	body, err := i.client.CallBinary(ctx, inv.Method, inv.Args)
	if err != nil {
		return err
	}
	if inv.OutPath == "" {
		_, err = i.out.Write(body)
		return err
	}
	if err := os.WriteFile(inv.OutPath, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", inv.OutPath, err)
	}
	i.log.InfoObj("binary response saved", "output", map[string]any{
		"method": inv.Method,
		"path":   inv.OutPath,
		"bytes":  len(body),
	})
	return nil
}

// record keeps the ledger in step with jobs created or deleted by this call.
// Ledger failures are logged; the API call itself already succeeded.
func (i *Invoker) record(m mygengo.Method, inv Invocation, resp *mygengo.Response) {
	if i.store == nil {
		return
	}
	switch m {
	case mygengo.PostTranslationJob, mygengo.PostTranslationJobs:
		jobs := createdJobs(resp.Payload)
		if len(jobs) == 0 {
			i.log.DebugObj("no job ids in response", "method", string(m))
			return
		}
		for _, job := range jobs {
			status := job.Status
			if status == "" {
				status = domain.StatusQueued
			}
			if err := i.store.TrackJob(job.JobID.String(), status); err != nil {
				i.log.WarnObj("track job failed", "ledger_error", map[string]any{
					"job_id": job.JobID.String(),
					"error":  err.Error(),
				})
			}
		}
	case mygengo.DeleteTranslationJob:
		id := inv.Args["id"]
		if err := i.store.Forget(id); err != nil {
			i.log.WarnObj("forget job failed", "ledger_error", map[string]any{
				"job_id": id,
				"error":  err.Error(),
			})
		}
	}
}

// createdJobs finds job records in a post response. The API answers with a
// single {"job": {...}}, or with "jobs" as a list of {key: job} objects or
// as a {key: job} object.
func createdJobs(payload json.RawMessage) []mygengo.JobDetail {
	var wrapper struct {
		Job  *mygengo.JobDetail `json:"job"`
		Jobs json.RawMessage    `json:"jobs"`
	}
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return nil
	}

	var out []mygengo.JobDetail
	if wrapper.Job != nil && wrapper.Job.JobID != "" {
		out = append(out, *wrapper.Job)
	}

	var keyed []map[string]mygengo.JobDetail
	if err := json.Unmarshal(wrapper.Jobs, &keyed); err != nil {
		var single map[string]mygengo.JobDetail
		if err := json.Unmarshal(wrapper.Jobs, &single); err == nil {
			keyed = append(keyed, single)
		}
	}
	for _, m := range keyed {
		for _, job := range m {
			if job.JobID != "" {
				out = append(out, job)
			}
		}
	}
	return out
}

func (i *Invoker) writeJSON(path string, payload json.RawMessage) error {
	var buf bytes.Buffer
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	buf.WriteByte('\n')

	if path != "" {
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}
	_, err := i.out.Write(buf.Bytes())
	return err
}

func openFiles(args []FileArg) ([]mygengo.File, func(), error) {
	var (
		files   []mygengo.File
		closers []io.Closer
	)
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}
	for _, a := range args {
		f, err := os.Open(a.Path)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open %s: %w", a.Path, err)
		}
		closers = append(closers, f)
		files = append(files, mygengo.File{Param: a.Field, Name: filepath.Base(a.Path), Reader: f})
	}
	return files, closeAll, nil
}

// ListMethods prints the method catalog.
func ListMethods(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tVERB\tPATH\tPAYLOAD")
	for _, d := range mygengo.Methods() {
		payload := d.Payload
		if d.Binary {
			payload = "(binary)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.Verb, d.Path, payload)
	}
	return tw.Flush()
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, mygengo.ErrConfig), errors.Is(err, mygengo.ErrUnknownMethod), errors.Is(err, mygengo.ErrMissingParameter):
		return 2
	case errors.Is(err, mygengo.ErrAuth):
		return 3
	case errors.Is(err, mygengo.ErrAPI):
		return 4
	case errors.Is(err, mygengo.ErrTransport):
		return 5
	default:
		return 1
	}
}

// UpdatesLedger reports whether method creates or removes tracked jobs.
func UpdatesLedger(method string) bool {
	switch mygengo.Method(method) {
	case mygengo.PostTranslationJob, mygengo.PostTranslationJobs, mygengo.DeleteTranslationJob:
		return true
	default:
		return false
	}
}
