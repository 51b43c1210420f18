// Package finetune drives the fine-tuning workflow for one CLI invocation. A
// Trainer remembers the file and job identifiers it produced, so later steps
// of the same invocation can omit them.
package finetune

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/apperr"
	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/output"
	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/provider"
	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/tokens"
)

// Service is the remote API surface the Trainer needs. *provider.Client
// satisfies it.
type Service interface {
	UploadFile(ctx context.Context, path string) (provider.FileInfo, error)
	ListFiles(ctx context.Context) ([]provider.FileInfo, error)
	GetFile(ctx context.Context, id string) (provider.FileInfo, error)
	DeleteFile(ctx context.Context, id string) error
	CreateJob(ctx context.Context, req provider.JobRequest) (provider.JobInfo, error)
	ListJobs(ctx context.Context, limit int) ([]provider.JobInfo, error)
	GetJob(ctx context.Context, id string) (provider.JobInfo, error)
	CancelJob(ctx context.Context, id string) (provider.JobInfo, error)
	ListEvents(ctx context.Context, id string, limit int) ([]provider.EventInfo, error)
	ListModels(ctx context.Context) ([]provider.ModelInfo, error)
	DeleteModel(ctx context.Context, id string) error
}

// EncoderFactory builds the tokenizer used by CountTokens. It is only called
// when tokens are actually counted.
type EncoderFactory func() (tokens.Encoder, error)

// Trainer holds per-invocation state. The Service may be nil when only local
// operations are used.
type Trainer struct {
	svc        Service
	out        *output.Printer
	newEncoder EncoderFactory
	baseModel  string
	logger     *zap.Logger

	fileID   string
	filePath string
	jobID    string
}

func New(svc Service, out *output.Printer, newEncoder EncoderFactory, baseModel string, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{
		svc:        svc,
		out:        out,
		newEncoder: newEncoder,
		baseModel:  baseModel,
		logger:     logger.Named("trainer"),
	}
}

// FileID is the identifier of the file uploaded in this invocation, if any.
func (t *Trainer) FileID() string { return t.fileID }

// JobID is the identifier of the job started in this invocation, if any.
func (t *Trainer) JobID() string { return t.jobID }

func (t *Trainer) service(op string) (Service, error) {
	if t.svc == nil {
		return nil, &apperr.ConfigurationError{Setting: "API client", Reason: op + " needs the remote API but no client was configured"}
	}
	return t.svc, nil
}

// =============================================================================
// FILES
// =============================================================================

func (t *Trainer) CreateFile(ctx context.Context, path string) (provider.FileInfo, error) {
	svc, err := t.service("create file")
	if err != nil {
		return provider.FileInfo{}, err
	}

	f, err := svc.UploadFile(ctx, path)
	if err != nil {
		return provider.FileInfo{}, err
	}
	t.fileID, t.filePath = f.ID, path
	t.logger.Info("file uploaded", zap.String("file_id", f.ID), zap.String("path", path))

	t.out.Printf("File ID: %s\n", f.ID)
	return f, nil
}

// ListFiles prints every stored file ordered by field ("bytes", "created_at",
// "id" or "filename") in direction "asc" or "desc".
func (t *Trainer) ListFiles(ctx context.Context, field, direction string) ([]provider.FileInfo, error) {
	less, err := fileOrder(field)
	if err != nil {
		return nil, err
	}
	desc, err := descending(direction)
	if err != nil {
		return nil, err
	}

	svc, err := t.service("list files")
	if err != nil {
		return nil, err
	}
	files, err := svc.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		if desc {
			return less(files[j], files[i])
		}
		return less(files[i], files[j])
	})

	t.out.Files(files)
	return files, nil
}

func (t *Trainer) GetFileDetails(ctx context.Context, id string) (provider.FileInfo, error) {
	id, err := t.resolveFileID(id)
	if err != nil {
		return provider.FileInfo{}, err
	}
	svc, err := t.service("get file details")
	if err != nil {
		return provider.FileInfo{}, err
	}

	f, err := svc.GetFile(ctx, id)
	if err != nil {
		return provider.FileInfo{}, err
	}
	return f, t.out.JSON(f)
}

func (t *Trainer) DeleteFile(ctx context.Context, id string) error {
	id, err := t.resolveFileID(id)
	if err != nil {
		return err
	}
	svc, err := t.service("delete file")
	if err != nil {
		return err
	}

	if err := svc.DeleteFile(ctx, id); err != nil {
		return err
	}
	if id == t.fileID {
		t.fileID = ""
	}
	t.out.Success("File ID: %s deleted.", id)
	return nil
}

func (t *Trainer) resolveFileID(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if t.fileID == "" {
		return "", apperr.MissingID("file ID", "provide a file ID or upload a file first with --create-file")
	}
	return t.fileID, nil
}

func fileOrder(field string) (func(a, b provider.FileInfo) bool, error) {
	switch strings.ToLower(field) {
	case "", "bytes":
		return func(a, b provider.FileInfo) bool { return a.Bytes < b.Bytes }, nil
	case "created_at":
		return func(a, b provider.FileInfo) bool { return a.CreatedAt < b.CreatedAt }, nil
	case "id":
		return func(a, b provider.FileInfo) bool { return a.ID < b.ID }, nil
	case "filename":
		return func(a, b provider.FileInfo) bool { return a.Filename < b.Filename }, nil
	default:
		return nil, &apperr.ConfigurationError{Setting: "sort field", Reason: fmt.Sprintf("unknown field %q (want bytes, created_at, id or filename)", field)}
	}
}

func descending(direction string) (bool, error) {
	switch strings.ToLower(direction) {
	case "", "asc":
		return false, nil
	case "desc":
		return true, nil
	default:
		return false, &apperr.ConfigurationError{Setting: "sort direction", Reason: fmt.Sprintf("unknown direction %q (want asc or desc)", direction)}
	}
}

// =============================================================================
// JOBS
// =============================================================================

// JobOptions tunes StartTraining. An empty TrainingFile means the file
// uploaded earlier in this invocation.
type JobOptions struct {
	TrainingFile   string
	ValidationFile string
	Suffix         string
	Epochs         int
}

func (t *Trainer) StartTraining(ctx context.Context, opts JobOptions) (provider.JobInfo, error) {
	fileID := opts.TrainingFile
	if fileID == "" {
		fileID = t.fileID
	}
	if fileID == "" {
		return provider.JobInfo{}, apperr.MissingID("training file", "upload a file first with --create-file or pass --training-file")
	}
	if opts.Epochs < 0 {
		return provider.JobInfo{}, &apperr.ConfigurationError{Setting: "n-epochs", Reason: "must not be negative"}
	}
	svc, err := t.service("start training")
	if err != nil {
		return provider.JobInfo{}, err
	}

	job, err := svc.CreateJob(ctx, provider.JobRequest{
		TrainingFile:   fileID,
		ValidationFile: opts.ValidationFile,
		Model:          t.baseModel,
		Suffix:         opts.Suffix,
		Epochs:         opts.Epochs,
	})
	if err != nil {
		return provider.JobInfo{}, err
	}
	t.jobID = job.ID
	t.logger.Info("job created", zap.String("job_id", job.ID), zap.String("model", t.baseModel))

	t.out.Printf("Job ID: %s\n", job.ID)
	return job, nil
}

func (t *Trainer) ListJobs(ctx context.Context, limit int) ([]provider.JobInfo, error) {
	if limit < 0 {
		return nil, &apperr.ConfigurationError{Setting: "limit", Reason: "must not be negative"}
	}
	svc, err := t.service("list jobs")
	if err != nil {
		return nil, err
	}

	jobs, err := svc.ListJobs(ctx, limit)
	if err != nil {
		return nil, err
	}
	t.out.Jobs(jobs)
	return jobs, nil
}

func (t *Trainer) GetJobDetails(ctx context.Context, id string) (provider.JobInfo, error) {
	id, err := t.resolveJobID(id)
	if err != nil {
		return provider.JobInfo{}, err
	}
	svc, err := t.service("get job details")
	if err != nil {
		return provider.JobInfo{}, err
	}

	job, err := svc.GetJob(ctx, id)
	if err != nil {
		return provider.JobInfo{}, err
	}
	return job, t.out.JSON(job)
}

func (t *Trainer) CancelJob(ctx context.Context, id string) error {
	id, err := t.resolveJobID(id)
	if err != nil {
		return err
	}
	svc, err := t.service("cancel job")
	if err != nil {
		return err
	}

	if _, err := svc.CancelJob(ctx, id); err != nil {
		return err
	}
	t.out.Success("Job %s canceled.", id)
	return nil
}

func (t *Trainer) ListEvents(ctx context.Context, id string, limit int) ([]provider.EventInfo, error) {
	id, err := t.resolveJobID(id)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, &apperr.ConfigurationError{Setting: "limit", Reason: "must not be negative"}
	}
	svc, err := t.service("list events")
	if err != nil {
		return nil, err
	}

	events, err := svc.ListEvents(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	return events, t.out.JSON(events)
}

func (t *Trainer) resolveJobID(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if t.jobID == "" {
		return "", apperr.MissingID("job ID", "provide a job ID or start a job first with --start-training")
	}
	return t.jobID, nil
}

// =============================================================================
// MODELS
// =============================================================================

func (t *Trainer) ListModelsSummary(ctx context.Context) ([]provider.ModelInfo, error) {
	svc, err := t.service("list models")
	if err != nil {
		return nil, err
	}
	models, err := svc.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	t.out.ModelsSummary(models)
	return models, nil
}

// ListModelsByOwner prints the models owned by owner. An owner with no
// models is reported but is not an error.
func (t *Trainer) ListModelsByOwner(ctx context.Context, owner string) ([]provider.ModelInfo, error) {
	if owner == "" {
		return nil, apperr.MissingID("owner", "provide an owner name")
	}
	svc, err := t.service("list models")
	if err != nil {
		return nil, err
	}
	models, err := svc.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	var owned []provider.ModelInfo
	for _, m := range models {
		if m.OwnedBy == owner {
			owned = append(owned, m)
		}
	}
	t.out.ModelsByOwner(owner, owned)
	return owned, nil
}

func (t *Trainer) DeleteModel(ctx context.Context, id string) error {
	if id == "" {
		return apperr.MissingID("model ID", "provide a model ID")
	}
	svc, err := t.service("delete model")
	if err != nil {
		return err
	}

	if err := svc.DeleteModel(ctx, id); err != nil {
		return err
	}
	t.out.Success("Model %s deleted.", id)
	return nil
}

// =============================================================================
// TOKENS
// =============================================================================

// CountTokens counts the tokens of a JSONL training file under every
// supported encoding and prints the tally. An empty path means the file
// uploaded earlier in this invocation.
func (t *Trainer) CountTokens(path string) (tokens.Tally, error) {
	if path == "" {
		path = t.filePath
	}
	if path == "" {
		return nil, apperr.MissingID("file path", "provide a file path or upload a file first with --create-file")
	}

	enc, err := t.newEncoder()
	if err != nil {
		return nil, err
	}

	tally, err := tokens.CountFile(path, enc)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("tokens counted", zap.String("path", path))

	t.out.Tally(tally)
	return tally, nil
}
