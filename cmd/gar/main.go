package main

import (
	"fmt"
	"os"
	"strings"

	"gar-go/internal/app"
	"gar-go/internal/config"
	"gar-go/internal/gar"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a GarApp. The caller must defer a.Close().
func newApp(cmd *cobra.Command) (*app.GarApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	over := app.Overrides{}
	if tables, err := cmd.Flags().GetStringSlice("tables"); err == nil {
		for _, name := range tables {
			table, ok := gar.ParseTableName(strings.ToLower(name))
			if !ok {
				return nil, fmt.Errorf("unknown table: %s", name)
			}
			over.Tables = append(over.Tables, table)
		}
	}
	if limit, err := cmd.Flags().GetInt("limit"); err == nil {
		over.Limit = limit
	}
	if tempDir, err := cmd.Flags().GetString("tempdir"); err == nil {
		over.TempDir = tempDir
	}

	a, err := app.NewGarApp(cfg, over)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "gar",
	Short: "GAR address registry loader",
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
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
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
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Database:  %s\n", cfg.Database.Type)
		if len(cfg.Regions) > 0 {
			fmt.Printf("Regions:   %s\n", strings.Join(cfg.Regions, ", "))
		}
		if len(cfg.Tables) > 0 {
			fmt.Printf("Tables:    %s\n", strings.Join(cfg.Tables, ", "))
		}
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a complete dump",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, _ := cmd.Flags().GetString("src")
		truncate, _ := cmd.Flags().GetBool("truncate")
		keepIndexes, _ := cmd.Flags().GetBool("keep-indexes")
		skipVersionInfo, _ := cmd.Flags().GetBool("skip-version-info")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Import(cmd.Context(), gar.ImportOptions{
			Src:             src,
			Truncate:        truncate,
			KeepIndexes:     keepIndexes,
			SkipVersionInfo: skipVersionInfo,
		}); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Println("Import finished.")
		return nil
	},
}

// update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Apply pending delta dumps",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, _ := cmd.Flags().GetString("src")
		skipBad, _ := cmd.Flags().GetBool("skip-bad")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Update(cmd.Context(), gar.UpdateOptions{
			Src:     src,
			SkipBad: skipBad,
		}); err != nil {
			return fmt.Errorf("update failed: %w", err)
		}

		fmt.Println("Update finished.")
		return nil
	},
}

// versions command
var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Refresh the published version list",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RefreshVersions(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Version list refreshed.")
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-table load watermarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		statuses, err := a.Statuses(cmd.Context())
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			fmt.Println("No data loaded.")
			return nil
		}

		for _, s := range statuses {
			region := "-"
			if s.Region != nil {
				region = *s.Region
			}
			fmt.Printf("%-15s  %-3s  %d\n", s.Table, region, s.Ver)
		}
		return nil
	},
}

// validate-house-params command
var validateHouseParamsCmd = &cobra.Command{
	Use:   "validate-house-params",
	Short: "Report suspicious house parameter values as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		minVer, _ := cmd.Flags().GetInt("min-ver")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		found, err := a.ValidateHouseParams(cmd.Context(), os.Stdout, minVer)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%d suspicious value(s) found\n", found)
		return nil
	},
}

// addRunFlags registers the flags shared by import and update.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("src", "", "Archive, directory or URL to load from")
	cmd.Flags().StringSlice("tables", nil, "Restrict the run to these tables")
	cmd.Flags().Int("limit", 0, "Rows per insert batch")
	cmd.Flags().String("tempdir", "", "Directory for downloaded archives")
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	addRunFlags(importCmd)
	importCmd.Flags().Bool("truncate", false, "Replace already loaded data")
	importCmd.Flags().Bool("keep-indexes", false, "Do not drop secondary indexes during the load")
	importCmd.Flags().Bool("skip-version-info", false, "Do not refresh the version list first")

	addRunFlags(updateCmd)
	updateCmd.Flags().Bool("skip-bad", false, "Skip tables whose files fail to parse")

	validateHouseParamsCmd.Flags().Int("min-ver", 0, "Only check params loaded at or after this version")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateHouseParamsCmd)
}
