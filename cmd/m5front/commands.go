package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kalambet/m5front/internal/config"
	"github.com/kalambet/m5front/internal/predictor"
	"github.com/kalambet/m5front/internal/tui"
	"github.com/kalambet/m5front/internal/view"
)

func checkService(ctx context.Context, e *env) error {
	return predictor.CheckReady(ctx, e.client, os.Stderr)
}

// --- predict ---

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Request one forecast and print it as a percentage",
	Long: `Request one forecast and print it as a percentage.

Examples:
  m5front predict --item HOBBIES_1_001 --store CA_1 --date 2016-05-01
  m5front predict --item FOODS_3_090 --store TX_2 --date 2016-05-01 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		item, _ := cmd.Flags().GetString("item")
		store, _ := cmd.Flags().GetString("store")
		date, _ := cmd.Flags().GetString("date")
		asJSON, _ := cmd.Flags().GetBool("json")

		e, err := loadEnv()
		if err != nil {
			return err
		}
		setupLogging(os.Stderr, e.cfg.Log.Level)

		form := view.FormState{ItemID: item, StoreID: store, Date: date}
		return runPredict(cmd.Context(), e.client, cmd.OutOrStdout(), form, asJSON)
	},
}

func init() {
	predictCmd.Flags().String("item", "", "item identifier, e.g. HOBBIES_1_001")
	predictCmd.Flags().String("store", "", "store identifier, e.g. CA_1")
	predictCmd.Flags().String("date", "", "forecast date (YYYY-MM-DD)")
	predictCmd.Flags().Bool("json", false, "print the result as JSON")
}

type predictOutput struct {
	ItemID     string  `json:"item_id"`
	StoreID    string  `json:"store_id"`
	Date       string  `json:"date"`
	Prediction float64 `json:"prediction"`
	Percent    string  `json:"percent"`
}

// runPredict drives the same submission flow as the form and prints the
// panel that would be shown.
func runPredict(ctx context.Context, p view.Predictor, w io.Writer, form view.FormState, asJSON bool) error {
	s := view.New(view.ModeText)
	s = view.Reduce(s, view.FieldChanged{Field: view.FieldItem, Value: form.ItemID})
	s = view.Reduce(s, view.FieldChanged{Field: view.FieldStore, Value: form.StoreID})
	s = view.Reduce(s, view.FieldChanged{Field: view.FieldDate, Value: form.Date})

	s = view.Submit(ctx, p, s, nil)
	if s.Panel() == view.PanelError {
		return errors.New(s.Err)
	}

	if !asJSON {
		fmt.Fprintln(w, colorize(colorGreen, s.ResultText()))
		return nil
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(predictOutput{
		ItemID:     s.Form.ItemID,
		StoreID:    s.Form.StoreID,
		Date:       s.Form.Date,
		Prediction: *s.Result,
		Percent:    s.ResultText(),
	})
}

// --- options ---

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the item and store identifiers known to the service",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		e, err := loadEnv()
		if err != nil {
			return err
		}
		setupLogging(os.Stderr, e.cfg.Log.Level)

		return runOptions(cmd.Context(), e.client, cmd.OutOrStdout(), asJSON)
	},
}

func init() {
	optionsCmd.Flags().Bool("json", false, "print the lists as JSON")
}

func runOptions(ctx context.Context, src view.OptionSource, w io.Writer, asJSON bool) error {
	lists, err := view.LoadOptions(ctx, src)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string][]string{
			"items":  lists.Items,
			"stores": lists.Stores,
		})
	}

	fmt.Fprintln(w, colorize(colorBold, fmt.Sprintf("Items (%d)", len(lists.Items))))
	for _, id := range lists.Items {
		fmt.Fprintf(w, "  %s\n", id)
	}
	fmt.Fprintln(w, colorize(colorBold, fmt.Sprintf("Stores (%d)", len(lists.Stores))))
	for _, id := range lists.Stores {
		fmt.Fprintf(w, "  %s\n", id)
	}
	return nil
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show prediction service health and the active configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			// Still show partial status even if config fails.
			printFailure(cmd.ErrOrStderr(), fmt.Sprintf("config error: %v", err))
			return nil
		}
		showStatus(cmd.Context(), e, cmd.OutOrStdout())
		return nil
	},
}

func showStatus(ctx context.Context, e *env, w io.Writer) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if h, err := e.client.Health(ctx); err != nil {
		printStatus(w, "Prediction service", "unreachable at %s", e.client.BaseURL())
	} else {
		printStatus(w, "Prediction service", "%s at %s (%s)", h.Status, e.client.BaseURL(), h.Project)
	}

	printStatus(w, "Web form", "%s", formStatus(ctx, e.cfg.Server.Port))
	printStatus(w, "Input mode", "%s", e.cfg.UI.InputMode)
	printStatus(w, "Log level", "%s", e.cfg.Log.Level)
}

// formStatus reports whether a serve process answers on the configured port.
func formStatus(ctx context.Context, port int) string {
	formURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formURL+"/health", nil)
	if err != nil {
		return "stopped"
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "stopped"
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return "running at " + formURL
	}
	return fmt.Sprintf("error (HTTP %d)", resp.StatusCode)
}

// --- tui ---

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the forecast form in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		// stderr belongs to the terminal UI; debug logs go to a file.
		if logLevel(e.cfg.Log.Level) == slog.LevelDebug {
			f, err := tea.LogToFile("m5front-debug.log", "m5front")
			if err != nil {
				return fmt.Errorf("opening debug log: %w", err)
			}
			defer f.Close()
			setupLogging(f, e.cfg.Log.Level)
		} else {
			setupLogging(io.Discard, e.cfg.Log.Level)
		}

		_, err = tui.Run(cmd.Context(), inputMode(e.cfg), e.client, e.client)
		return err
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		printConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func printConfig(w io.Writer, cfg config.Config) {
	for _, k := range config.ShowAll(cfg) {
		fmt.Fprintf(w, "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
	}
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value.\n\nKeys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored configuration value",
	Long:  "Remove a stored configuration value so its default applies again.\n\nKeys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}

		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
