// Package cli provides the scribble command-line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driving"
	"github.com/behole/scribble/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// skipServices marks commands that run without building services.
const skipServices = "skip-services"

// Daemon scans the notes folder and keeps processing new files.
type Daemon interface {
	Scan(ctx context.Context) ([]domain.ProcessingOutcome, error)
	Run(ctx context.Context) error
}

// Server is a long-running surface such as the HTTP dashboard.
type Server interface {
	Serve(ctx context.Context) error
}

// Services holds everything the commands drive. Nil fields disable the
// commands that need them.
type Services struct {
	Dispatcher driving.Dispatcher
	Digests    driving.DigestCompiler
	Backlog    driving.BacklogService
	Library    driving.LibraryService
	Settings   driving.SettingsService
	Scheduler  driving.Scheduler

	// Watcher scans and watches without the scheduler or server.
	Watcher Daemon
	// Daemon runs the watcher, scheduler and HTTP server together.
	Daemon Daemon
	// HTTP is the dashboard on its own.
	HTTP Server

	// Close releases stores and clients. May be nil.
	Close func() error
}

// Options carries the global flags to the bootstrap.
type Options struct {
	ConfigDir string
	Memory    bool
	Verbose   bool
}

// Bootstrap builds services for one invocation.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

// Package-level services, set by the bootstrap or by tests.
var (
	dispatcher      driving.Dispatcher
	digestCompiler  driving.DigestCompiler
	backlogService  driving.BacklogService
	libraryService  driving.LibraryService
	settingsService driving.SettingsService
	scheduler       driving.Scheduler
	watchDaemon     Daemon
	runDaemon       Daemon
	httpServer      Server
	closeServices   func() error
)

var bootstrap Bootstrap

// Global flags.
var (
	verbose   bool
	configDir string
	inMemory  bool
)

var rootCmd = &cobra.Command{
	Use:   "scribble",
	Short: "Turn a folder of notes into digests",
	Long: `Scribble watches a notes folder, extracts text from images, PDFs,
documents, web clips, URL shortcuts and chat exports, tags them, pulls out
tasks, and compiles weekly and monthly digests, task lists, topic reports and
reading suggestions.

An LLM provider is optional. Without one, tags and tasks come from simple
pattern matching and digests are built from the stored text.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.scribble)")
	rootCmd.PersistentFlags().BoolVar(&inMemory, "memory", false, "Use an in-memory store (nothing is saved)")
}

// SetBootstrap installs the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly.
func SetServices(s *Services) {
	dispatcher = s.Dispatcher
	digestCompiler = s.Digests
	backlogService = s.Backlog
	libraryService = s.Library
	settingsService = s.Settings
	scheduler = s.Scheduler
	watchDaemon = s.Watcher
	runDaemon = s.Daemon
	httpServer = s.HTTP
	closeServices = s.Close
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd.Annotations[skipServices] == "true" {
		return nil
	}
	svc, err := bootstrap(cmd.Context(), Options{
		ConfigDir: configDir,
		Memory:    inMemory,
		Verbose:   verbose,
	})
	if err != nil {
		return err
	}
	SetServices(svc)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// notConfigured is returned when a command's service was never wired.
func notConfigured(name string) error {
	return errors.New(name + " not configured")
}
