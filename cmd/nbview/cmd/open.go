package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/nbview/internal/config"
	"github.com/Dicklesworthstone/nbview/internal/db"
	"github.com/Dicklesworthstone/nbview/internal/document"
	"github.com/Dicklesworthstone/nbview/internal/pane"
	"github.com/Dicklesworthstone/nbview/internal/resolver"
	"github.com/Dicklesworthstone/nbview/internal/tui"
	"github.com/Dicklesworthstone/nbview/internal/viewstate"
	"github.com/Dicklesworthstone/nbview/internal/widget"
	"github.com/Dicklesworthstone/nbview/internal/widgetpool"
)

var openCmd = &cobra.Command{
	Use:   "open <document>...",
	Short: "Open documents in the viewer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)

	openCmd.Flags().String("view-type", "", "force a view type for all documents")
	openCmd.Flags().Bool("no-persist", false, "do not load or save view state")
	openCmd.Flags().Bool("no-watch", false, "do not reload documents on change")
}

func runOpen(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("nbview open needs an interactive terminal")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	forcedType, _ := cmd.Flags().GetString("view-type")
	noPersist, _ := cmd.Flags().GetBool("no-persist")
	noWatch, _ := cmd.Flags().GetBool("no-watch")

	inputs, err := buildInputs(args, forcedType)
	if err != nil {
		return err
	}

	store := viewstate.NewStore()
	var database *db.DB
	if cfg.PersistViewState && !noPersist {
		database, err = db.Open()
		if err != nil {
			return fmt.Errorf("open state database: %w", err)
		}
		defer database.Close()

		if err := store.LoadPersisted(database); err != nil {
			return fmt.Errorf("load persisted view state: %w", err)
		}
	}

	res := resolver.New()
	if hasSFTPInput(inputs) {
		src, err := resolver.NewSFTPSource(resolver.SFTPConfig{
			User:           cfg.SFTP.User,
			KeyPath:        cfg.SFTP.KeyPath,
			KnownHostsPath: cfg.SFTP.KnownHostsPath,
			DialTimeout:    time.Duration(cfg.SFTP.DialTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("configure sftp source: %w", err)
		}
		res.RegisterSource("sftp", src)
	}

	pool := widgetpool.New(
		func(viewType string) (pane.Widget, error) {
			return widget.NewNotebook(viewType), nil
		},
		widgetpool.WithMaxIdle(cfg.PoolMaxIdle),
	)
	defer pool.Close()

	var watch *resolver.Watcher
	if cfg.WatchDocuments && !noWatch {
		watch, err = resolver.NewWatcher()
		if err != nil {
			return fmt.Errorf("create document watcher: %w", err)
		}
	}

	model := tui.New(tui.Deps{
		Pool:     pool,
		Resolver: res,
		Store:    store,
		DB:       database,
		Watcher:  watch,
	}, inputs)

	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Load()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildInputs converts CLI arguments to input references. Bare paths become
// absolute file URIs so watcher keys and view-state keys stay stable no
// matter which directory the viewer was started from.
func buildInputs(args []string, forcedType string) ([]document.InputRef, error) {
	var inputs []document.InputRef
	for _, arg := range args {
		uri := arg
		if document.Scheme(arg) == "file" {
			path := strings.TrimPrefix(arg, "file://")
			abs, err := filepath.Abs(path)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", arg, err)
			}
			uri = "file://" + abs
		}
		inputs = append(inputs, document.NewInputRef(uri, forcedType))
	}
	return inputs, nil
}

func hasSFTPInput(inputs []document.InputRef) bool {
	for _, input := range inputs {
		if document.Scheme(input.URI) == "sftp" {
			return true
		}
	}
	return false
}
