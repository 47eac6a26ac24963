package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	ct400 "github.com/iwtcode/ct400Adapter"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile  string
	backend  string
	profile  string
	logLevel string
	json     bool
}

// NewRootCmd собирает дерево команд ct400ctl.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "ct400ctl",
		Short:         "Control a Yenista CT400 component tester",
		Long:          "ct400ctl drives a CT400 through CT400_lib (or the built-in simulator): laser control, detector readout, wavelength sweeps and calibration.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with CT400_* settings")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "library backend: dll|simulator (overrides CT400_BACKEND)")
	root.PersistentFlags().StringVar(&opts.profile, "profile", "", "simulator profile YAML (overrides CT400_SIM_PROFILE)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level or off (overrides LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "emit JSON")

	root.AddCommand(
		newInfoCmd(opts),
		newScanCmd(opts),
		newPowerCmd(opts),
		newLaserCmd(opts),
		newCalibrateCmd(opts),
		newMonitorCmd(opts),
	)
	return root
}

// Execute запускает CLI. Вызывается из main.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (o *rootOptions) config() *ct400.Config {
	if o.envFile != "" {
		_ = godotenv.Load(o.envFile)
	}
	cfg := ct400.Load()
	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if o.profile != "" {
		cfg.SimProfile = o.profile
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg
}

func (o *rootOptions) open() (*ct400.Client, error) {
	return ct400.New(o.config())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
