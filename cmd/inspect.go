package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/easy-applier/internal/ai"
	"github.com/spigell/easy-applier/internal/dom/htmldom"
	"github.com/spigell/easy-applier/internal/form"
	"github.com/spigell/easy-applier/internal/logger"
	"github.com/spigell/easy-applier/internal/profile"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.html>",
	Short: "Show how every question of a saved application step would be answered",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inspect(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().Bool("ai", false, "ask the ai assistant for questions the profile rules do not cover")
}

// inspect classifies the field groups of a saved page offline. Nothing is
// written to the page or to the output directory.
func inspect(cmd *cobra.Command, path string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	candidate, err := profile.Load(config.Profile)
	if err != nil {
		logger.Fatal("loading the profile", zap.Error(err))
	}

	page, err := htmldom.Open(path)
	if err != nil {
		logger.Fatal("opening the page", zap.Error(err), zap.String("file", path))
	}

	var completer ai.Completer = ai.Unavailable{}
	if cmd.Flag("ai").Value.String() == "true" {
		completer, _, _ = newCompleters(ctx, config.AI, logger)
	}

	engine, err := newEngine(config, candidate, completer, nil, logger)
	if err != nil {
		logger.Fatal("building the answer engine", zap.Error(err))
	}

	groups, err := page.FindAll(ctx, nil, form.GroupSelector)
	if err != nil {
		logger.Fatal("finding questions", zap.Error(err))
	}
	if len(groups) == 0 {
		logger.Info("no questions found", zap.String("file", path))
		return
	}

	for i, group := range groups {
		q, err := form.Read(ctx, page, group)
		if err != nil {
			logger.Warn("reading question", zap.Int("index", i), zap.Error(err))
			continue
		}

		res := engine.Resolve(ctx, q)
		fmt.Printf("%2d. [%s] %s\n", i+1, q.Kind, q.Label)
		if len(q.Options) > 0 {
			fmt.Printf("    options: %v\n", q.OptionTexts())
		}
		if q.Prefilled() {
			fmt.Printf("    prefilled: %q\n", q.Current)
		}
		if !res.Resolved() {
			fmt.Printf("    unresolved\n")
			continue
		}
		fmt.Printf("    answer: %q (%s %s)\n", res.Value.Render(q), res.Source, res.Rule)
	}
}
