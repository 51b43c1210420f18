/*
Copyright © 2025 FAYAZ KHAN
*/
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/finetune"
)

// action is one flag-triggered step of an invocation.
type action struct {
	flag   string
	remote bool
	run    func(ctx context.Context, tr *finetune.Trainer, o *options) error
}

// actions lists every step in the order it executes, independent of the
// order flags appear on the command line.
var actions = []action{
	{flag: "create-file", remote: true, run: func(ctx context.Context, tr *finetune.Trainer, o *options) error {
		_, err := tr.CreateFile(ctx, o.createFile)
		return err
	}},
	{flag: "list-files", remote: true, run: func(ctx context.Context, tr *finetune.Trainer, o *options) error {
		_, err := tr.ListFiles(ctx, o.sortField, o.sortDirection)
		return err
	}},
	{flag: "get-file-details", remote: true, run: func(ctx context.Context, tr *finetune.Trainer, o *options) error {
		_, err := tr.GetFileDetails(ctx, o.fileDetails)
		return err
	}},
	{flag: "start-training", remote: true, run: func(ctx context.Context, tr *finetune.Trainer, o *options) error {
		_, err := tr.StartTraining(ctx, finetune.JobOptions{
			TrainingFile:   o.trainingFile,
			ValidationFile: o.validationFile,
			Suffix:         o.suffix,
			Epochs:         o.epochs,
		})
		return err
	}},
	{flag: "list-jobs", remote: true, run: func(ctx context.Context, tr *finetune.Trainer, o *options) error {
		_, err := tr.ListJobs(ctx, o.limit)
		return err
	}},
	{flag: "get-job-details", remote: true, run: func(ctx context.Context, tr *finetune.Trainer, o *options) error {
		_, err := tr.GetJobDetails(ctx, o.jobDetails)
		return err
	}},
	{flag: "cancel-job", remote: true, run: func(ctx context.Context, tr *finetune.Trainer, o *options) error {
		return tr.CancelJob(ctx, o.cancelJob)
	}},
	{flag: "list-events", remote: true, run: func(ctx context.Context, tr *finetune.Trainer, o *options) error {
		_, err := tr.ListEvents(ctx, o.listEvents, o.limit)
		return err
	}},
	{flag: "list-models-summary", remote: true, run: func(ctx context.Context, tr *finetune.Trainer, o *options) error {
		_, err := tr.ListModelsSummary(ctx)
		return err
	}},
	{flag: "list-models-by-owner", remote: true, run: func(ctx context.Context, tr *finetune.Trainer, o *options) error {
		_, err := tr.ListModelsByOwner(ctx, o.modelsByOwner)
		return err
	}},
	{flag: "delete-model", remote: true, run: func(ctx context.Context, tr *finetune.Trainer, o *options) error {
		return tr.DeleteModel(ctx, o.deleteModel)
	}},
	{flag: "delete-file", remote: true, run: func(ctx context.Context, tr *finetune.Trainer, o *options) error {
		return tr.DeleteFile(ctx, o.deleteFile)
	}},
	{flag: "count-tokens", run: func(ctx context.Context, tr *finetune.Trainer, o *options) error {
		_, err := tr.CountTokens(o.countTokens)
		return err
	}},
}

// selectedActions returns the actions whose flag was set, in execution order.
func selectedActions(cmd *cobra.Command) []action {
	var selected []action
	for _, a := range actions {
		f := cmd.Flags().Lookup(a.flag)
		if !f.Changed {
			continue
		}
		if f.Value.Type() == "bool" && f.Value.String() != "true" {
			continue
		}
		selected = append(selected, a)
	}
	return selected
}

func needsRemote(selected []action) bool {
	for _, a := range selected {
		if a.remote {
			return true
		}
	}
	return false
}
