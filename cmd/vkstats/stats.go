package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"vkstats/pkg/auth"
	"vkstats/pkg/config"
	"vkstats/pkg/export"
	"vkstats/pkg/logger"
	"vkstats/pkg/stats"
	"vkstats/pkg/vk"
)

var (
	// Stats command flags
	statsMode    string
	postsLimit   int
	dateLimit    string
	exportFormat string
	resultsDir   string
	forceLogin   bool
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <wall>",
	Short: "Gather activity statistics from a VK wall",
	Long: `Gather activity statistics from a VK user or group wall and export a
ranked report to the results directory.

The wall argument is a screen name or a profile URL; groups and users are
both supported. With no stored token the command prompts for credentials
and signs in first.`,
	Example: `  # Rank authors of a group wall by post count
  vkstats stats club1

  # Rank likers of the last 500 posts
  vkstats stats durov --mode likers --posts 500

  # Only count posts since 2015, export CSV only
  vkstats stats club1 --date 2015/01/01 --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsMode, "mode", "", "statistics mode (posts, likers, liked)")
	statsCmd.Flags().IntVar(&postsLimit, "posts", 0, "number of posts to scan (0 = all)")
	statsCmd.Flags().StringVar(&dateLimit, "date", "", "earliest post date in yyyy/mm/dd format (0/0/0 = none)")
	statsCmd.Flags().StringVar(&exportFormat, "format", "", "export format (csv, txt, all)")
	statsCmd.Flags().StringVarP(&resultsDir, "output", "o", "", "results directory")
	statsCmd.Flags().BoolVar(&forceLogin, "login", false, "sign in again even if a token is stored")
}

func runStats(cmd *cobra.Command, args []string) error {
	target := strings.TrimSpace(args[0])

	flags := make(map[string]interface{})
	if statsMode != "" {
		flags["mode"] = statsMode
	}
	if postsLimit > 0 {
		flags["posts"] = postsLimit
	}
	if dateLimit != "" {
		flags["date"] = dateLimit
	}
	if exportFormat != "" {
		flags["format"] = exportFormat
	}
	if resultsDir != "" {
		flags["output"] = resultsDir
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()

	mode, err := stats.ParseMode(cfg.Stats.Mode)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return err
	}
	// Malformed dates are a configuration fault: reject before any
	// network activity.
	if _, err := stats.ParseCutoff(cfg.Stats.DateLimit); err != nil {
		return err
	}

	token, err := obtainToken(cfg, forceLogin, log)
	if err != nil {
		return err
	}

	client := vk.NewClient(token.AccessToken, vk.Options{
		BaseURL:      cfg.VK.APIBaseURL,
		Version:      cfg.VK.APIVersion,
		CallInterval: cfg.RateLimit.CallInterval,
		RetryDelay:   cfg.RateLimit.RetryDelay,
		Timeout:      cfg.RateLimit.RequestTimeout,
	}, log)

	ctx := context.Background()

	// Needed for the provider's statistics gathering.
	if err := client.TrackVisitor(ctx); err != nil {
		return err
	}

	wall, err := stats.ResolveWall(ctx, client, target, log)
	if err != nil {
		return err
	}
	log.InfoWithFields("started gathering stats", map[string]interface{}{
		"wall": strings.ToUpper(wall.Title),
		"mode": string(mode),
	})

	collector, err := stats.NewCollector(client, *wall, stats.Options{
		PostsLimit: cfg.Stats.PostsLimit,
		DateLimit:  cfg.Stats.DateLimit,
		Filter:     mode.WallFilter(),
	}, log)
	if err != nil {
		return err
	}

	entries, err := collector.Run(ctx, mode)
	if err != nil {
		return err
	}

	writer, err := export.NewWriter(cfg.Export.ResultsDir, format, log)
	if err != nil {
		return err
	}
	paths, err := writer.Write(mode, wall.ScreenName, entries)
	if err != nil {
		return err
	}

	log.InfoWithFields("successful", map[string]interface{}{
		"files": paths,
	})
	return nil
}

// obtainToken loads the stored token or runs the sign-in flow when there is
// none (or when re-login is forced).
func obtainToken(cfg *config.Config, force bool, log logger.Logger) (*auth.Token, error) {
	store, err := auth.NewManager()
	if err != nil {
		return nil, err
	}

	if !force && store.Exists() {
		if token, err := store.Load(); err == nil {
			return token, nil
		}
	}

	creds, err := auth.PromptCredentials()
	if err != nil {
		return nil, err
	}

	flow, err := auth.NewFlow(auth.FlowOptions{
		AuthorizeURL: cfg.VK.OAuthURL,
		RedirectURI:  cfg.VK.RedirectURI,
		ClientID:     cfg.VK.AppID,
		Scope:        cfg.VK.Scope,
	}, log)
	if err != nil {
		return nil, err
	}

	token, err := flow.Login(context.Background(), creds)
	if err != nil {
		return nil, err
	}

	if err := store.Save(token); err != nil {
		log.WithError(err).Warn("failed to store token; it will be requested again next run")
	}
	return token, nil
}
