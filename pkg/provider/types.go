package provider

import (
	"time"

	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/apperr"
)

// FileInfo describes a file held by the remote file store.
type FileInfo struct {
	ID        string `json:"id"`
	Object    string `json:"object,omitempty"`
	Bytes     int64  `json:"bytes"`
	CreatedAt int64  `json:"created_at"`
	Filename  string `json:"filename,omitempty"`
	Purpose   string `json:"purpose,omitempty"`
	Status    string `json:"status,omitempty"`
}

func (f FileInfo) Created() time.Time { return time.Unix(f.CreatedAt, 0) }

// JobInfo describes a fine-tuning job.
type JobInfo struct {
	ID              string   `json:"id"`
	Object          string   `json:"object,omitempty"`
	Model           string   `json:"model"`
	Status          string   `json:"status"`
	CreatedAt       int64    `json:"created_at"`
	FinishedAt      int64    `json:"finished_at,omitempty"`
	FineTunedModel  string   `json:"fine_tuned_model,omitempty"`
	TrainingFile    string   `json:"training_file"`
	ValidationFile  string   `json:"validation_file,omitempty"`
	ResultFiles     []string `json:"result_files"`
	TrainedTokens   int      `json:"trained_tokens,omitempty"`
	Hyperparameters any      `json:"hyperparameters,omitempty"`
}

func (j JobInfo) Created() time.Time { return time.Unix(j.CreatedAt, 0) }

// EventInfo is one entry of a job's event log.
type EventInfo struct {
	Object    string `json:"object,omitempty"`
	CreatedAt int64  `json:"created_at"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// ModelInfo describes a model visible to the account.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
	Root    string `json:"root,omitempty"`
	Parent  string `json:"parent,omitempty"`
}

func (m ModelInfo) CreatedTime() time.Time { return time.Unix(m.Created, 0) }

// JobRequest holds the parameters of a new fine-tuning job. Zero values are
// left to the server's defaults.
type JobRequest struct {
	TrainingFile   string
	ValidationFile string
	Model          string
	Suffix         string
	Epochs         int
}

type field struct {
	name  string
	value string
}

// requireFields returns a SchemaError for the first empty field.
func requireFields(op string, fields ...field) error {
	for _, f := range fields {
		if f.value == "" {
			return &apperr.SchemaError{Source: op, Field: f.name, Reason: "missing from response"}
		}
	}
	return nil
}

func (f FileInfo) validate(op string) error {
	return requireFields(op, field{"id", f.ID})
}

func (j JobInfo) validate(op string) error {
	return requireFields(op, field{"id", j.ID}, field{"model", j.Model}, field{"status", j.Status})
}

func (m ModelInfo) validate(op string) error {
	return requireFields(op, field{"id", m.ID}, field{"owned_by", m.OwnedBy})
}
