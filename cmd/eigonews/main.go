package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snakagawa/eigonews/internal/config"
	"github.com/snakagawa/eigonews/internal/database"
	"github.com/snakagawa/eigonews/internal/pipeline"
	"github.com/snakagawa/eigonews/internal/server"
	"github.com/snakagawa/eigonews/internal/tts"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "eigonews",
	Short:   "Leveled English-learning news from Japanese feeds",
	Long:    "eigonews fetches Japanese news, rotates out repeats, and rewrites articles into leveled English-learning content with audio.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetHistoryCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("eigonews", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/eigonews/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, API keys, and thresholds.")
		return nil
	},
}

// --- search command ---

var (
	searchLevel      string
	searchCategories []string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one fetch/dedupe/rotate cycle and print the selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		svc := pipeline.New(cfg, db)
		result, err := svc.Search(context.Background(), searchLevel, searchCategories)
		if err != nil {
			return err
		}

		fmt.Printf("Collected %d, %d after dedup, %d after rotation.\n\n",
			result.Collected, result.AfterDedup, result.AfterRotate)
		for i, a := range result.Articles {
			var tags []string
			if a.IsRotated {
				tags = append(tags, "rotated")
			}
			if a.IsFallback {
				tags = append(tags, "fallback")
			}
			suffix := ""
			if len(tags) > 0 {
				suffix = " [" + strings.Join(tags, ",") + "]"
			}
			fmt.Printf("%d. %s%s\n", i+1, a.TitleJa, suffix)
			if a.TitleEn != "" && a.TitleEn != a.TitleJa {
				fmt.Printf("   %s\n", a.TitleEn)
			}
		}
		if result.Shortfall {
			fmt.Println("\nShortfall: fewer articles than requested were available.")
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchLevel, "level", "l", "beginner", "Learner level (beginner/intermediate/advanced)")
	searchCmd.Flags().StringSliceVar(&searchCategories, "categories", []string{"all"}, "Categories to search")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		synth, err := tts.New(
			cfg.TTS.Model, cfg.TTS.Format, cfg.TTS.APIKeyEnv,
			cfg.AudioDir(), cfg.TTS.MaxTextLength, cfg.TTS.RequestsPerMinute,
		)
		if err != nil {
			return fmt.Errorf("initializing TTS: %w", err)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		svc := pipeline.New(cfg, db)
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(svc, synth, db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache and configuration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		cached, err := db.CountProcessed()
		if err != nil {
			return fmt.Errorf("getting cache stats: %w", err)
		}

		fmt.Printf("Feeds configured: %d\n", len(cfg.Sources.Feeds))
		fmt.Printf("Dedup mode: %s\n", cfg.Dedupe.Mode)
		fmt.Printf("Rotation variant: %s (min %d, window %d)\n",
			cfg.Rotation.Variant, cfg.Rotation.MinRequired, cfg.Rotation.MaxHistory)
		fmt.Printf("Processed articles cached: %d\n", cached)
		fmt.Printf("Database: %s\n", db.Path())
		return nil
	},
}

// --- reset-history command ---

var resetKey string

var resetHistoryCmd = &cobra.Command{
	Use:   "reset-history",
	Short: "Clear rotation history on a running server (all keys, or one with --key)",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := strings.NewReader(fmt.Sprintf(`{"key":%q}`, resetKey))
		url := fmt.Sprintf("http://localhost:%d/api/admin/reset", cfg.Server.Port)

		resp, err := http.Post(url, "application/json", body)
		if err != nil {
			return fmt.Errorf("calling %s (is the server running?): %w", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("reset failed: server returned %d", resp.StatusCode)
		}
		if resetKey == "" {
			fmt.Println("Cleared all history windows.")
		} else {
			fmt.Printf("Cleared history window %s.\n", resetKey)
		}
		return nil
	},
}

func init() {
	resetHistoryCmd.Flags().StringVar(&resetKey, "key", "", "History key to clear (level_category...)")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "eigonews.db")
	return database.Open(dbPath)
}
