/*
Copyright © 2025 FAYAZ KHAN
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/apperr"
	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/config"
	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/finetune"
	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/logging"
	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/output"
	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/provider"
	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/tokens"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

// encoderFactory builds the tokenizer for --count-tokens.
var encoderFactory finetune.EncoderFactory = func() (tokens.Encoder, error) {
	enc, err := tokens.NewTiktokenEncoder()
	if err != nil {
		return nil, err
	}
	return enc, nil
}

// options holds every flag value of one invocation.
type options struct {
	apiKey     string
	modelName  string
	baseURL    string
	org        string
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
	noColor    bool
	utc        bool

	createFile     string
	listFiles      bool
	sortField      string
	sortDirection  string
	fileDetails    string
	startTraining  bool
	trainingFile   string
	validationFile string
	suffix         string
	epochs         int
	listJobs       bool
	limit          int
	jobDetails     string
	cancelJob      string
	listEvents     string
	modelsSummary  bool
	modelsByOwner  string
	deleteModel    string
	deleteFile     string
	countTokens    string
}

func newRootCmd() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "CLI for managing OpenAI fine-tuning workflows",
		Long: `finetune uploads training data, starts and monitors fine-tuning jobs,
manages the resulting models, and estimates the token count of a training
corpus before it is submitted.

Every action is a flag. Several actions may be combined in one invocation;
they always run in the order listed below, and the first failure stops the
rest. Identifiers produced by an earlier action are reused by later ones, so
--create-file data.jsonl --start-training uploads a file and trains on it.

Credentials are read from --api-key, the OPENAI_API_KEY environment variable,
the --env-file dotenv file (.env by default), or the config file, in that order.

Examples:
  # Estimate tokens before uploading (no API key needed)
  finetune --count-tokens data.jsonl

  # Upload a file and start a job on it
  finetune --create-file data.jsonl --start-training --model-name gpt-3.5-turbo

  # Watch jobs
  finetune --list-jobs
  finetune --list-events ftjob-abc123`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o)
		},
	}

	f := cmd.Flags()

	// Settings
	f.StringVar(&o.apiKey, "api-key", "", "OpenAI API key (default from OPENAI_API_KEY)")
	f.StringVar(&o.modelName, "model-name", "", "Base model to fine-tune (default from OPENAI_BASE_MODEL or "+config.DefaultBaseModel+")")
	f.StringVar(&o.baseURL, "base-url", "", "API base URL (default from OPENAI_BASE_URL or "+config.DefaultBaseURL+")")
	f.StringVar(&o.org, "org", "", "OpenAI organization ID (default from OPENAI_ORG_ID)")
	f.StringVar(&o.configPath, "config", "", "Config file (default "+config.DefaultConfigPath()+")")
	f.StringVar(&o.envFile, "env-file", config.DefaultDotEnvFile, "Dotenv file loaded before the environment is read (empty to skip)")
	f.StringVar(&o.logLevel, "log-level", "", "Diagnostic log level: debug, info, warn or error")
	f.StringVar(&o.logFormat, "log-format", "", "Diagnostic log format: console or json")
	f.BoolVar(&o.noColor, "no-color", false, "Disable coloured output")
	f.BoolVar(&o.utc, "utc", false, "Print timestamps in UTC instead of local time")

	// Actions, in execution order
	f.StringVar(&o.createFile, "create-file", "", "Upload a JSONL file for fine-tuning and print its file ID")
	f.BoolVar(&o.listFiles, "list-files", false, "List uploaded files")
	f.StringVar(&o.sortField, "sort-field", config.DefaultFileSortField, "Sort --list-files by bytes, created_at, id or filename")
	f.StringVar(&o.sortDirection, "sort-direction", config.DefaultFileSortDirection, "Sort direction for --list-files: asc or desc")
	f.StringVar(&o.fileDetails, "get-file-details", "", "Print full JSON details of a file")
	f.BoolVar(&o.startTraining, "start-training", false, "Start a fine-tuning job on the uploaded file")
	f.StringVar(&o.trainingFile, "training-file", "", "File ID to train on instead of the one uploaded by --create-file")
	f.StringVar(&o.validationFile, "validation-file", "", "File ID of validation data for --start-training")
	f.StringVar(&o.suffix, "suffix", "", "Suffix added to the fine-tuned model name")
	f.IntVar(&o.epochs, "n-epochs", 0, "Number of training epochs (default chosen by the service)")
	f.BoolVar(&o.listJobs, "list-jobs", false, "List fine-tuning jobs")
	f.IntVar(&o.limit, "limit", config.DefaultListLimit, "Number of jobs or events to list")
	f.StringVar(&o.jobDetails, "get-job-details", "", "Print full JSON details of a job")
	f.StringVar(&o.cancelJob, "cancel-job", "", "Cancel a job")
	f.StringVar(&o.listEvents, "list-events", "", "Print the events of a job as JSON")
	f.BoolVar(&o.modelsSummary, "list-models-summary", false, "List models grouped by owner")
	f.StringVar(&o.modelsByOwner, "list-models-by-owner", "", "List models owned by the given owner")
	f.StringVar(&o.deleteModel, "delete-model", "", "Delete a fine-tuned model")
	f.StringVar(&o.deleteFile, "delete-file", "", "Delete an uploaded file")
	f.StringVar(&o.countTokens, "count-tokens", "", "Count tokens in a JSONL training file")

	f.SortFlags = false

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, o *options) error {
	selected := selectedActions(cmd)
	if len(selected) == 0 {
		return cmd.Help()
	}

	cfg, err := config.NewLoader().WithConfigPath(o.configPath).WithDotEnv(o.envFile).Load()
	if err != nil {
		return err
	}
	err = cfg.ApplyOverrides(config.Overrides{
		APIKey:       o.apiKey,
		BaseModel:    o.modelName,
		BaseURL:      o.baseURL,
		Organization: o.org,
		LogLevel:     o.logLevel,
		LogFormat:    o.logFormat,
		NoColor:      o.noColor,
	})
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialise logging: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	stdout := cmd.OutOrStdout()
	out := output.NewPrinter(stdout, output.ShouldColor(stdout, cfg.NoColor))
	if o.utc {
		out.WithLocation(time.UTC)
	}

	// Only reach for the credential when something actually calls the API.
	var svc finetune.Service
	if needsRemote(selected) {
		client, err := provider.NewClient(cfg, logger)
		if err != nil {
			return err
		}
		svc = client
	}

	trainer := finetune.New(svc, out, encoderFactory, cfg.BaseModel, logger)

	ctx := cmd.Context()
	for _, a := range selected {
		logger.Debug("running action", zap.String("flag", a.flag))
		if err := a.run(ctx, trainer, o); err != nil {
			logger.Debug("action failed", zap.String("flag", a.flag), zap.String("kind", apperr.Kind(err)), zap.Error(err))
			return fmt.Errorf("--%s: %w", a.flag, err)
		}
	}
	logger.Debug("invocation finished", zap.String("file_id", trainer.FileID()), zap.String("job_id", trainer.JobID()))
	return nil
}
