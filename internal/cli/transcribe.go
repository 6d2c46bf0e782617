package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/whispera-app/whispera/internal/config"
	"github.com/whispera-app/whispera/internal/ffmpeg"
	"github.com/whispera-app/whispera/internal/pipeline"
	"github.com/whispera-app/whispera/internal/transcribe"
)

// EnvFFmpegPath is the environment variable naming a custom ffmpeg
// directory or binary.
const EnvFFmpegPath = "FFMPEG_PATH"

// progressBuffer bounds the checkpoint channel between the worker and the
// interaction goroutine.
const progressBuffer = 16

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var (
		output     string
		model      string
		apiKey     string
		ffmpegHint string
		noProgress bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <media-file>",
		Short: "Transcribe an audio or video file",
		Long: fmt.Sprintf(`Transcribe an audio or video file using the OpenAI transcription API.

Files over 25MB are split into chunks with ffmpeg, transcribed chunk by
chunk, and the results joined in order. ffmpeg is only required for files
that need splitting.

Supported formats: %s`, pipeline.SupportedExtensionsList()),
		Example: `  whispera transcribe meeting.mp3
  whispera transcribe lecture.mp4 -o lecture.txt
  whispera transcribe interview.wav --ffmpeg /opt/ffmpeg/bin
  whispera transcribe podcast.m4a --model whisper-1 --no-progress`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, env, transcribeArgs{
				inputPath:  args[0],
				output:     output,
				model:      model,
				apiKey:     apiKey,
				ffmpegHint: ffmpegHint,
				noProgress: noProgress,
				verbose:    verbose,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&model, "model", transcribe.ModelWhisper1, "Transcription model")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "OpenAI API key (default: environment or settings file)")
	cmd.Flags().StringVar(&ffmpegHint, "ffmpeg", "", "Path to the ffmpeg binary or its directory")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

// transcribeArgs bundles the transcribe command's inputs.
type transcribeArgs struct {
	inputPath  string
	output     string
	model      string
	apiKey     string
	ffmpegHint string
	noProgress bool
	verbose    bool
}

// runTranscribe executes the transcription pipeline on a worker goroutine
// while the command goroutine drains progress updates.
func runTranscribe(cmd *cobra.Command, env *Env, args transcribeArgs) error {
	ctx := cmd.Context()

	log, err := env.NewLogger(args.verbose)
	if err != nil {
		return fmt.Errorf("cannot build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// API key precedence: flag, environment, settings file.
	apiKey := args.apiKey
	if apiKey == "" {
		apiKey = env.Getenv(config.KeyAPIKey)
	}
	if apiKey == "" {
		apiKey, _ = config.Get(config.KeyAPIKey)
	}
	if apiKey == "" {
		return fmt.Errorf("%w (set it with: whispera config set api-key sk-..., or export %s=sk-...)",
			ErrAPIKeyMissing, config.KeyAPIKey)
	}

	// ffmpeg hint precedence: flag, environment.
	hint := args.ffmpegHint
	if hint == "" {
		hint = env.Getenv(EnvFFmpegPath)
	}

	transcriber := env.TranscriberFactory.NewTranscriber(apiKey, args.model)
	reporter := pipeline.NewReporter(progressBuffer)
	proc := env.PipelineFactory.NewPipeline(transcriber,
		pipeline.WithLocator(ffmpeg.NewLocator(
			ffmpeg.WithHint(hint),
			ffmpeg.WithLogger(log),
		)),
		pipeline.WithProgress(reporter.Func()),
		pipeline.WithLogger(log),
	)

	// The pipeline runs on a worker goroutine so the long-running network
	// and subprocess calls never block the interaction side.
	var text string
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer reporter.Close()
		var procErr error
		text, procErr = proc.Process(ctx, args.inputPath)
		return procErr
	})

	drainProgress(env.Stderr, reporter.Updates(), !args.noProgress)

	if err := g.Wait(); err != nil {
		return err
	}

	if args.output != "" {
		if err := writeFileAtomic(args.output, text); err != nil {
			return err
		}
		fmt.Fprintf(env.Stderr, "Done: %s\n", args.output)
		return nil
	}

	fmt.Fprintln(env.Stdout, text)
	return nil
}
