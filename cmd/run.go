package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/easy-applier/internal/ai"
	"github.com/spigell/easy-applier/internal/ai/gemini"
	"github.com/spigell/easy-applier/internal/answer"
	"github.com/spigell/easy-applier/internal/apply"
	"github.com/spigell/easy-applier/internal/dom/browser"
	"github.com/spigell/easy-applier/internal/filtering"
	"github.com/spigell/easy-applier/internal/linkedin"
	"github.com/spigell/easy-applier/internal/listing"
	"github.com/spigell/easy-applier/internal/logger"
	"github.com/spigell/easy-applier/internal/pacing"
	"github.com/spigell/easy-applier/internal/profile"
	"github.com/spigell/easy-applier/internal/recorder"
	"github.com/spigell/easy-applier/internal/secrets"
)

const (
	PromptYes                 = "Yes"
	PromptNo                  = "No"
	PromptDone                = "Done"
	PromptReportFilters       = "Report filters"
	PromptReportByCompanies   = "Report by companies"
	PromptPostingsToFile      = "Dump postings to file"
	PromptAppendToExcludeFile = "Append all postings to exclude file"

	logFileName = "easy-applier.log"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Procced?",
	Items: []string{PromptYes, PromptNo, PromptReportFilters},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search postings and apply to every one the filters admit",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("do-not-exclude-applied", "f", false, "do not exclude postings if already applied")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before and after the run")
	runCmd.Flags().StringP("exclude-file", "e", "", "special file with postings to exclude. Default is unset.")
	runCmd.Flags().Bool("no-pacing", false, "do not wait between actions")

	viper.BindPFlag("exclude-file", runCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("no-pacing", runCmd.Flags().Lookup("no-pacing"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}

	logFile := filepath.Join(config.Output.Directory, logFileName)
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), logFile)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	logger.Info("starting the easy-applier", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config.Search, "", "  ")
	logger.Debug(fmt.Sprintf("starting with search: \n %s", pretty))

	if err := config.Search.Validate(); err != nil {
		logger.Fatal("invalid search section", zap.Error(err))
	}

	candidate, err := profile.Load(config.Profile)
	if err != nil {
		logger.Fatal("loading the profile", zap.Error(err))
	}

	rec, err := recorder.New(config.Output.Directory, logger)
	if err != nil {
		logger.Fatal("preparing the output directory", zap.Error(err))
	}

	assistantAI, fitAI, aiReason := newCompleters(ctx, config.AI, logger)

	engine, err := newEngine(config, candidate, assistantAI, rec, logger)
	if err != nil {
		logger.Fatal("building the answer engine", zap.Error(err))
	}

	session := linkedin.NewRunSession()
	filters := prepareFilters(cmd, config, candidate, session, rec, fitAI, logger)
	if aiReason != "" {
		filtering.DisableByName(filters.Filters(), "ai_fit", aiReason)
	}
	if err := filters.Validate(); err != nil {
		logger.Fatal("validating filters", zap.Error(err))
	}

	autoApprove := cmd.Flag("auto-approve").Value.String() == "true"
	if !autoApprove {
		if err := confirm(filters, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	b, err := browser.Start(ctx, browser.Options{
		ProfileDir: config.Browser.ProfileDir,
		ExecPath:   config.Browser.ExecPath,
		Headless:   config.Browser.Headless,
	}, logger)
	if err != nil {
		logger.Fatal("starting the browser", zap.Error(err))
	}
	defer b.Close()

	page := b.Page()

	var scheduler pacing.Scheduler = pacing.NewRandom(config.Pacing, logger)
	if viper.GetBool("no-pacing") {
		scheduler = pacing.None{}
	}

	machine := apply.New(apply.Config{
		MaxSteps: config.Apply.MaxSteps,
		Profile:  candidate,
	}, apply.Deps{
		Page:      page,
		Resolver:  engine,
		Scheduler: scheduler,
		Contacts:  rec,
		Logger:    logger,
	})

	runner := linkedin.NewRunner(linkedin.Config{Search: config.Search}, linkedin.Deps{
		Page:      page,
		Filtering: filters,
		Applier:   machine,
		Outcomes:  rec,
		Scheduler: scheduler,
		Logger:    logger,
	})

	if err := runner.Run(ctx, session); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run stopped", zap.Error(err))
	}

	logger.Info("results are saved",
		zap.Int("segments", session.Counters.Segments),
		zap.Int("segment_errors", session.Counters.SegErrors),
		zap.String("output", config.Output.Directory),
	)

	if autoApprove || session.Postings.Len() == 0 {
		return
	}

	if err := review(&session.Postings, logger); err != nil && !errors.Is(err, errExit) {
		logger.Fatal("exiting", zap.Error(err))
	}
}

// confirm asks whether the run should start.
func confirm(filters *filtering.Filtering, logger *zap.Logger) error {
	for {
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptYes:
			return nil
		case PromptNo:
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return errExit
		case PromptReportFilters:
			pretty, _ := json.MarshalIndent(filtering.Describe(filters.Filters()), "", "  ")
			logger.Info(string(pretty))
		default:
			return fmt.Errorf("invalid action: %s", action)
		}
	}
}

// review offers the post run reports for the postings the filters admitted.
func review(postings *listing.Postings, logger *zap.Logger) error {
	items := []string{PromptDone, PromptReportByCompanies, PromptPostingsToFile}
	excludeFile := viper.GetString("exclude-file")
	if excludeFile != "" {
		items = append(items, PromptAppendToExcludeFile)
	}

	reviewPrompt := promptui.Select{
		Label: "What next?",
		Items: items,
	}

	for {
		_, action, err := reviewPrompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptDone:
			return errExit
		case PromptReportByCompanies:
			pretty, _ := json.MarshalIndent(postings.ReportByCompany(), "", "  ")
			logger.Info(string(pretty), zap.Int("postings count", postings.Len()))
		case PromptPostingsToFile:
			filename, err := postings.DumpToTmpFile()
			if err != nil {
				return fmt.Errorf("dump results to file: %w", err)
			}
			logger.Info("dumping result to file", zap.String("filename", filename))
		case PromptAppendToExcludeFile:
			if err := listing.AppendToFile(excludeFile, listing.ExcludeActorUser, "", postings.Items...); err != nil {
				return err
			}
			logger.Info("appended to exclude file", zap.String("filename", excludeFile))
		default:
			return fmt.Errorf("invalid action: %s", action)
		}
	}
}

func newEngine(config *Config, candidate *profile.Profile, completer ai.Completer, diagnostics answer.Diagnostics, logger *zap.Logger) (*answer.Engine, error) {
	rules, err := answer.Arrange(answer.DefaultRules(), config.Rules.Order, config.Rules.Disabled)
	if err != nil {
		return nil, err
	}
	logger.Debug("answer rules", zap.Strings("order", answer.Names(rules)))

	maxLogLength := 0
	if config.AI != nil && config.AI.Gemini != nil {
		maxLogLength = config.AI.Gemini.MaxLogLength
	}

	return answer.NewEngine(candidate, rules, answer.Deps{
		Assistant:   ai.NewAssistant(completer, candidate.Summary(), logger, maxLogLength),
		Diagnostics: diagnostics,
		Logger:      logger,
	}), nil
}

// newCompleters returns the completers for question answering and fit
// evaluation. Without a usable provider both are ai.Unavailable and the
// reason says why.
func newCompleters(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (assistant, fit ai.Completer, reason string) {
	unavailable := func(reason string) (ai.Completer, ai.Completer, string) {
		logger.Info("ai is not used", zap.String("reason", reason))
		return ai.Unavailable{}, ai.Unavailable{}, reason
	}

	if cfg == nil || !cfg.Enabled {
		return unavailable("disabled in config")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.ProviderName {
		return unavailable(fmt.Sprintf("unsupported ai provider: %s", cfg.Provider))
	}

	gcfg := cfg.Gemini
	if gcfg == nil {
		gcfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  gcfg.APIKeyFile,
		Value: gcfg.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		logger.Warn("loading the gemini api key", zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY, GEMINI_API_KEY_FILE or ai.gemini.api-key-file"),
		)
		return unavailable("no gemini api key")
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:       apiKey,
		Model:        gcfg.Model,
		MaxRetries:   gcfg.MaxRetries,
		MaxLogLength: gcfg.MaxLogLength,
	}, logger)
	if err != nil {
		logger.Warn("creating the gemini client", zap.Error(err))
		return unavailable("gemini client is not available")
	}
	logger.Info("ai assistant is used", zap.String("provider", gemini.ProviderName), zap.String("model", generator.Model()))
	assistant = generator

	fitModel := gcfg.FitModel
	if strings.TrimSpace(fitModel) == "" {
		return assistant, assistant, ""
	}

	fit, err = gemini.NewGenerator(ctx, gemini.Config{
		APIKey:       apiKey,
		Model:        fitModel,
		MaxRetries:   gcfg.MaxRetries,
		MaxLogLength: gcfg.MaxLogLength,
	}, logger)
	if err != nil {
		logger.Warn("creating the gemini fit client", zap.Error(err))
		return assistant, ai.Unavailable{}, "gemini fit client is not available"
	}

	return assistant, fit, ""
}

func prepareFilters(cmd *cobra.Command, config *Config, candidate *profile.Profile, session *linkedin.RunSession, rec *recorder.Recorder, fit ai.Completer, logger *zap.Logger) *filtering.Filtering {
	steps := []filtering.Filter{
		filtering.NewSeen(session),
		filtering.NewTitleBlacklist(config.Blacklist.Titles),
		filtering.NewCompanyBlacklist(config.Blacklist.Companies),
		filtering.NewPosterBlacklist(config.Blacklist.Posters),
		filtering.NewApplyMethod(),
		prepareAppliedHistoryFilter(cmd, rec, logger),
		filtering.NewExcludeFile(viper.GetString("exclude-file")),
		prepareAIFilter(config, candidate, fit, logger),
	}

	return filtering.New(steps, logger)
}

func prepareAppliedHistoryFilter(cmd *cobra.Command, history filtering.History, logger *zap.Logger) filtering.Filter {
	ignore := false
	if cmd != nil {
		flag := cmd.Flag("do-not-exclude-applied")
		if flag != nil && strings.EqualFold(flag.Value.String(), "true") {
			ignore = true
		}
	}

	cfg := &filtering.AppliedHistoryConfig{Ignore: ignore}
	deps := &filtering.AppliedHistoryDeps{
		History: history,
		Logger:  logger,
	}

	return filtering.NewAppliedHistory(cfg, deps)
}

func prepareAIFilter(config *Config, candidate *profile.Profile, fit ai.Completer, logger *zap.Logger) filtering.Filter {
	if config.AI == nil || !config.AI.Enabled || !config.Apply.EvaluateFit {
		return filtering.NewAIFit(&filtering.AIFitFilterConfig{Enabled: false}, nil)
	}

	gcfg := config.AI.Gemini
	if gcfg == nil {
		gcfg = &GeminiConfig{}
	}
	model := gcfg.FitModel
	if model == "" {
		model = gcfg.Model
	}
	if generator, ok := fit.(*gemini.Generator); ok {
		model = generator.Model()
	}

	minScore := config.AI.MinimumFitScore
	if minScore < 0 {
		minScore = 0
	}

	matcher := ai.NewFitMatcher(fit, candidate.Summary(), minScore, logger, gcfg.MaxLogLength)

	return filtering.NewAIFit(&filtering.AIFitFilterConfig{
		Enabled:  true,
		Provider: gemini.ProviderName,
		Model:    model,
	}, &filtering.AIFitFilterDeps{
		Logger:      logger,
		Matcher:     matcher,
		ExcludeFile: viper.GetString("exclude-file"),
	})
}
