package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BCM-HGSC/aws-object-search/internal/aos"
	"github.com/BCM-HGSC/aws-object-search/internal/app"
	"github.com/BCM-HGSC/aws-object-search/internal/config"
	"github.com/BCM-HGSC/aws-object-search/internal/lock"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, lock.ErrHeld) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when no config
// file has been initialized. outputRoot overrides the catalog root when
// non-empty.
func loadConfig(outputRoot string) (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	var cfg *config.Config
	if _, err := os.Stat(defaults["config_path"]); err == nil {
		cfg, err = config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		cfg = config.NewConfig(defaults["base_dir"])
	}

	if outputRoot != "" {
		cfg.CatalogRoot = outputRoot
	}
	return cfg, nil
}

// newApp builds an App for one CLI invocation. The caller must defer a.Close().
func newApp(operation, outputRoot, logLevel string) (*app.App, error) {
	cfg, err := loadConfig(outputRoot)
	if err != nil {
		return nil, err
	}

	a, err := app.NewApp(cfg, operation, logLevel)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:           "aos",
	Short:         "Catalog and search the contents of S3 buckets",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Catalog root: %s\n", cfg.CatalogRoot)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Catalog root: %s\n", cfg.CatalogRoot)
		fmt.Printf("Log dir:      %s\n", cfg.LogDir)
		fmt.Printf("Lock file:    %s\n", cfg.LockFile)
		fmt.Printf("Index path:   %s\n", cfg.IndexPath())
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan S3 buckets into the catalog and rebuild the search index",
	RunE: func(cmd *cobra.Command, args []string) error {
		bucketPrefix, _ := cmd.Flags().GetString("bucket-prefix")
		outputRoot, _ := cmd.Flags().GetString("output-root")
		noScan, _ := cmd.Flags().GetBool("no-scan")
		noArchive, _ := cmd.Flags().GetBool("no-archive")
		noIndex, _ := cmd.Flags().GetBool("no-index")
		logLevel, _ := cmd.Flags().GetString("log-level")
		lockFile, _ := cmd.Flags().GetString("lock-file")

		cfg, err := loadConfig(outputRoot)
		if err != nil {
			return err
		}
		if bucketPrefix == "" {
			bucketPrefix = cfg.Scan.BucketPrefix
		}
		if lockFile == "" {
			lockFile = cfg.LockFile
		}

		a, err := app.NewApp(cfg, "Scan", logLevel)
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer a.Close()

		return a.RunScan(cmd.Context(), aos.ScanOptions{
			BucketPrefix: bucketPrefix,
			SkipScan:     noScan,
			SkipArchive:  noArchive,
			SkipIndex:    noIndex,
		}, lockFile)
	},
}

// search command (simple output, for pipelines)
var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search object keys, printing s3:// URIs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputRoot, _ := cmd.Flags().GetString("output-root")
		logLevel, _ := cmd.Flags().GetString("log-level")
		maxResults, _ := cmd.Flags().GetInt("max-results-per-query")
		uriOnly, _ := cmd.Flags().GetBool("uri-only")
		latest, _ := cmd.Flags().GetBool("latest")

		// nil (flag absent) means no filtering; an explicit empty value
		// excludes everything.
		var fileEndings []string
		if cmd.Flags().Changed("file-type") {
			fileEndings, _ = cmd.Flags().GetStringArray("file-type")
		}

		a, err := newApp("Search", outputRoot, logLevel)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.RunSearch(os.Stdout, args[0], app.SearchOptions{
			MaxResults:  maxResults,
			URIOnly:     uriOnly,
			Latest:      latest,
			FileEndings: fileEndings,
		})
	},
}

// query command (verbose output with scores)
var queryCmd = &cobra.Command{
	Use:   "query QUERY",
	Short: "Search object keys, printing scores and all stored fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputRoot, _ := cmd.Flags().GetString("output-root")
		logLevel, _ := cmd.Flags().GetString("log-level")
		maxResults, _ := cmd.Flags().GetInt("max-results-per-query")

		a, err := newApp("Query", outputRoot, logLevel)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.RunQuery(os.Stdout, args[0], maxResults)
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// scan flags
	scanCmd.Flags().String("bucket-prefix", "", "Only scan buckets whose name starts with this prefix")
	scanCmd.Flags().StringP("output-root", "o", "", "Catalog root directory (default from config)")
	scanCmd.Flags().Bool("no-scan", false, "Suppress scanning")
	scanCmd.Flags().Bool("no-archive", false, "Suppress archiving superseded snapshots")
	scanCmd.Flags().Bool("no-index", false, "Suppress indexing")
	scanCmd.Flags().String("log-level", "INFO", "Logging level")
	scanCmd.Flags().String("lock-file", "", "Serialize runs on this lock file (exit 2 when held)")

	// search flags
	searchCmd.Flags().StringP("output-root", "o", "", "Catalog root directory (default from config)")
	searchCmd.Flags().String("log-level", "WARNING", "Logging level")
	searchCmd.Flags().IntP("max-results-per-query", "m", 0, "Maximum results per query (default from config)")
	searchCmd.Flags().BoolP("uri-only", "u", false, "Print only s3:// URIs")
	searchCmd.Flags().BoolP("latest", "l", false, "Keep only the best match per key")
	searchCmd.Flags().StringArrayP("file-type", "t", nil, "Only print results whose URI ends with this suffix (repeatable)")

	// query flags
	queryCmd.Flags().StringP("output-root", "o", "", "Catalog root directory (default from config)")
	queryCmd.Flags().String("log-level", "WARNING", "Logging level")
	queryCmd.Flags().IntP("max-results-per-query", "m", 0, "Maximum results per query (default from config)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(queryCmd)
}
