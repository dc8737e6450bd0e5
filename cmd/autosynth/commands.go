package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hochfrequenz/autosynth/internal/config"
	"github.com/hochfrequenz/autosynth/internal/executor"
	"github.com/hochfrequenz/autosynth/internal/gapic"
	"github.com/hochfrequenz/autosynth/internal/javafmt"
	"github.com/hochfrequenz/autosynth/internal/metadata"
	"github.com/hochfrequenz/autosynth/internal/multi"
	"github.com/hochfrequenz/autosynth/internal/notify"
	"github.com/hochfrequenz/autosynth/internal/provider"
	"github.com/hochfrequenz/autosynth/internal/report"
	"github.com/hochfrequenz/autosynth/internal/schedule"
	"github.com/hochfrequenz/autosynth/internal/synth"
	"github.com/hochfrequenz/autosynth/internal/templates"
	"github.com/hochfrequenz/autosynth/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	multiConfig  string
	multiToken   string
	multiReport  string
	multiNoIssue bool

	synthOpts       synth.Options
	synthToken      string
	synthDeprecated bool
	synthHideLog    bool

	schedulePath string

	genService    string
	genVersion    string
	genLanguage   string
	genProtoPath  string
	genGoogleapis string
	genOutput     string
	genTemplates  string
)

func init() {
	// multi command
	multiCmd := &cobra.Command{
		Use:   "multi [-- GENERATOR_ARGS...]",
		Short: "Synthesize every configured library",
		RunE:  runMulti,
	}
	multiCmd.Flags().StringVar(&multiConfig, "config", "", "library config file or provider name")
	multiCmd.Flags().StringVar(&multiToken, "github-token", os.Getenv("GITHUB_TOKEN"), "GitHub API token")
	multiCmd.Flags().StringVar(&multiReport, "report", "", "report output path (default from settings)")
	multiCmd.Flags().BoolVar(&multiNoIssue, "no-issues", false, "skip issue tracker updates")
	rootCmd.AddCommand(multiCmd)

	// synth command
	synthCmd := &cobra.Command{
		Use:   "synth [-- GENERATOR_ARGS...]",
		Short: "Synthesize a single library",
		RunE:  runSynth,
	}
	synthCmd.Flags().StringVar(&synthOpts.Repository, "repository", "", "target repository (owner/name)")
	synthCmd.Flags().StringVar(&synthOpts.SynthPath, "synth-path", "", "path of the library inside the repository")
	synthCmd.Flags().StringVar(&synthOpts.BranchSuffix, "branch-suffix", "", "suffix for the autosynth branch")
	synthCmd.Flags().StringVar(&synthOpts.PRTitle, "pr-title", "", "pull request title")
	synthCmd.Flags().StringVar(&synthOpts.MetadataPath, "metadata-path", "", "directory holding synth.metadata")
	synthCmd.Flags().BoolVar(&synthDeprecated, "deprecated-execution", false, "run synth.py directly instead of the synthtool module")
	synthCmd.Flags().BoolVar(&synthHideLog, "hide-synth-log", false, "capture generator output into a report instead of streaming it")
	synthCmd.Flags().StringVar(&synthToken, "github-token", os.Getenv("GITHUB_TOKEN"), "GitHub API token")
	rootCmd.AddCommand(synthCmd)

	// schedule command
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run synthesis batches on a cron schedule",
		RunE:  runSchedule,
	}
	scheduleCmd.Flags().StringVar(&schedulePath, "schedule", defaultSchedulePath(), "schedule file path")
	rootCmd.AddCommand(scheduleCmd)

	// providers command
	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List registered library providers",
		Run: func(cmd *cobra.Command, args []string) {
			registerProviders("")
			for _, name := range provider.Names() {
				fmt.Println(name)
			}
		},
	}
	rootCmd.AddCommand(providersCmd)

	// generate command
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a client library from local protos",
		RunE:  runGenerate,
	}
	generateCmd.Flags().StringVar(&genService, "service", "", "short API name, e.g. speech")
	generateCmd.Flags().StringVar(&genVersion, "version", "", "API version, e.g. v1")
	generateCmd.Flags().StringVar(&genLanguage, "language", "", "target language")
	generateCmd.Flags().StringVar(&genProtoPath, "proto-path", "", "proto path inside the googleapis checkout")
	generateCmd.Flags().StringVar(&genGoogleapis, "googleapis", "", "local googleapis checkout")
	generateCmd.Flags().StringVar(&genOutput, "output", "", "output directory (default temp)")
	generateCmd.Flags().StringVar(&genTemplates, "templates", "", "root of common template groups to overlay on the output")
	rootCmd.AddCommand(generateCmd)
}

func loadSettings() (*config.Config, error) {
	path := settingsPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func defaultSchedulePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "autosynth", "schedule.toml")
}

// registerProviders wires the built-in providers. Discovery providers need
// a GitHub client, so registration happens once a token is known.
func registerProviders(token string) {
	provider.RegisterJava(tracker.NewGitHub(token))
}

// buildID identifies this run in issue bodies. Kokoro sets it for CI runs;
// local runs get a fresh UUID.
func buildID() string {
	if id := os.Getenv("KOKORO_BUILD_ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

func passthroughArgs(cmd *cobra.Command, args []string) []string {
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		return args[at:]
	}
	return nil
}

func runMulti(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	registerProviders(multiToken)
	source, err := config.Resolve(multiConfig, provider.Lookup)
	if err != nil {
		return err
	}
	libraries, err := source.Load()
	if err != nil {
		return err
	}
	log.Printf("[multi] synthesizing %d libraries", len(libraries))

	self, err := os.Executable()
	if err != nil {
		return err
	}

	driver := &multi.Driver{
		SynthCommand: []string{self, "synth"},
		Token:        multiToken,
		ExtraArgs:    passthroughArgs(cmd, args),
		LogsDir:      cfg.General.LogsDir,
		Collector:    report.NewCollector(),
	}
	if !multiNoIssue {
		driver.Reporter = tracker.NewReporter(tracker.NewGitHub(multiToken), buildID())
	}

	failures := driver.RunAll(cmd.Context(), libraries)

	reportPath := multiReport
	if reportPath == "" {
		reportPath = cfg.General.ReportPath
	}
	if err := driver.WriteReport("autosynth", reportPath); err != nil {
		log.Printf("[multi] writing report: %v", err)
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d libraries failed to synthesize\n", failures)
		os.Exit(1)
	}
	return nil
}

func runSynth(cmd *cobra.Command, args []string) error {
	synthOpts.DeprecatedExecution = synthDeprecated
	synthOpts.HideSynthLog = synthHideLog
	synthOpts.ExtraArgs = passthroughArgs(cmd, args)
	synthOpts.GitHubUser = envOr("GITHUB_USER", "autosynth")
	synthOpts.GitHubEmail = envOr("GITHUB_EMAIL", "autosynth@example.com")
	if synthToken != "" {
		synthOpts.Pusher = tracker.NewGitHub(synthToken)
	}

	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	synthOpts.LogsBase = cfg.General.LogsDir

	err = synth.Synthesize(cmd.Context(), synthOpts)
	if errors.Is(err, synth.ErrSkipped) {
		log.Printf("[synth] nothing to push for %s", synthOpts.Repository)
		os.Exit(synth.ExitCodeSkipped)
	}
	return err
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	scheduleCfg, err := schedule.LoadScheduleConfig(schedulePath)
	if err != nil {
		return err
	}
	if len(scheduleCfg.Batches) == 0 {
		return fmt.Errorf("no batches configured in %s", schedulePath)
	}

	scheduler, err := schedule.NewScheduler(scheduleCfg.Batches)
	if err != nil {
		return err
	}

	var notifiers []notify.Notifier
	if cfg.Notifications.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notifications.SlackWebhook))
	}
	if cfg.Notifications.Desktop {
		notifiers = append(notifiers, notify.NewDesktopNotifier(true))
	}
	var notifier notify.Notifier = notify.NoopNotifier{}
	if len(notifiers) > 0 {
		notifier = notify.NewMultiNotifier(notifiers...)
	}

	self, err := os.Executable()
	if err != nil {
		return err
	}

	log.Printf("[schedule] watching %d batches", len(scheduleCfg.Batches))
	scheduler.Start(func(batch schedule.RunConfig) error {
		log.Printf("[schedule] starting batch %s", batch.Name)
		command := []string{self, "multi", "--config", batch.Config, "--report", batch.Report}
		if len(batch.Args) > 0 {
			command = append(append(command, "--"), batch.Args...)
		}
		logPath := filepath.Join(cfg.General.LogsDir, "batches", batch.Name+".log")
		code, _, err := executor.Execute(cmd.Context(), command, logPath, os.Environ(), false)
		if err != nil {
			return err
		}
		if batch.NotifyOnComplete {
			if err := notifier.Send(notify.BatchComplete(batch.Name, code, batch.Report)); err != nil {
				log.Printf("[schedule] notify: %v", err)
			}
		}
		return nil
	})
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if err := gapic.EnsureDependencies(); err != nil {
		return err
	}

	var recorder metadata.Recorder
	recorder.AddGeneratorSource(
		fmt.Sprintf("gapic-generator-%s", genLanguage),
		cfg.Generator.GeneratorVersion,
		fmt.Sprintf("%s/gapic-generator-%s:%s", cfg.Generator.ImageRegistry, genLanguage, cfg.Generator.GeneratorVersion),
	)

	outputDir, err := gapic.Generate(cmd.Context(), gapic.Options{
		Service:          genService,
		Version:          genVersion,
		Language:         genLanguage,
		ProtoPath:        genProtoPath,
		GoogleapisDir:    genGoogleapis,
		ImageRegistry:    cfg.Generator.ImageRegistry,
		GeneratorVersion: cfg.Generator.GeneratorVersion,
		OutputDir:        genOutput,
		Recorder:         &recorder,
	})
	if err != nil {
		return err
	}

	if genTemplates != "" {
		group := templates.Group{Root: genTemplates, Name: genLanguage + "_library"}
		data := struct{ Name, Version, Language string }{genService, genVersion, genLanguage}
		if err := templates.RenderTo(group.Dir(), outputDir, data); err != nil {
			return err
		}
		recorder.AddTemplateSource(group.Name, genTemplates, cfg.Generator.GeneratorVersion)
	}

	if strings.EqualFold(genLanguage, "java") {
		if err := postProcessJava(cmd.Context(), outputDir); err != nil {
			return err
		}
	}

	if err := recorder.Write(filepath.Join(outputDir, "synth.metadata")); err != nil {
		return err
	}
	fmt.Println(outputDir)
	return nil
}

func postProcessJava(ctx context.Context, dir string) error {
	if err := javafmt.FixProtoHeaders(dir); err != nil {
		return err
	}
	if err := javafmt.FixGrpcHeaders(dir); err != nil {
		return err
	}
	formatter := &javafmt.Formatter{}
	version := javafmt.LatestMavenVersion(ctx, nil, "")
	return formatter.FormatCode(ctx, version, dir)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
