package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jhoicas/pilo-web/internal/application/session"
	"github.com/jhoicas/pilo-web/internal/infrastructure/backend"
	"github.com/jhoicas/pilo-web/internal/infrastructure/storage"
	"github.com/jhoicas/pilo-web/pkg/config"
	"github.com/jhoicas/pilo-web/pkg/logger"
)

// stateNamespace partición del ClientState local; el archivo ya es por usuario del sistema.
const stateNamespace = "cli"

var errNotLoggedIn = errors.New("not logged in, run `pilo login` first")

// cli estado compartido por los subcomandos. Se completa en PersistentPreRunE.
type cli struct {
	envFile   string
	statePath string
	verbose   bool

	cfg   *config.Config
	log   *logger.Logger
	store *session.Store
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:   "pilo",
		Short: "Pilo nutrition scanner CLI",
		Long: `pilo signs in to the Pilo backend and lets you look up products by barcode,
scan barcode images, and list or export your scan history.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	cmd.PersistentFlags().StringVar(&c.envFile, "env-file", "", "Load environment variables from this file before reading configuration")
	cmd.PersistentFlags().StringVar(&c.statePath, "state", defaultStatePath(), "File holding the stored token and profile")
	cmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log debug output to stderr")
	cmd.AddCommand(
		c.newLoginCmd(),
		c.newSignupCmd(),
		c.newLogoutCmd(),
		c.newMeCmd(),
		c.newLookupCmd(),
		c.newScanImageCmd(),
		c.newHistoryCmd(),
		c.newExportCmd(),
	)
	return cmd
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "pilo-state.json"
	}
	return filepath.Join(dir, "pilo", "state.json")
}

// setup carga configuración, logger y la sesión persistida.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := "warn"
	if c.verbose {
		level = "debug"
	}
	c.log = logger.New(logger.Config{Env: "development", Level: level, Output: cmd.ErrOrStderr()})

	fs, err := storage.NewFileStore(c.statePath)
	if err != nil {
		return err
	}
	c.store = session.NewStore(stateNamespace, fs, backend.NewClient(cfg.Backend), c.log.Named("session"))
	c.store.Initialize(cmd.Context())
	if msg := c.store.Snapshot().Error; msg != "" {
		return errors.New(msg)
	}
	return nil
}

// requireUser falla si no hay sesión restaurada.
func (c *cli) requireUser() error {
	if !c.store.Snapshot().IsAuthenticated() {
		return errNotLoggedIn
	}
	return nil
}
