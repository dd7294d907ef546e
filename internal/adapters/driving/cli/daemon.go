package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process the notes folder and watch it for new files",
	Long: `Process every file already in the notes folder, then keep watching it.
New and rewritten files are processed once they stop changing. Hidden
files and directories are ignored.

Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the notes folder, run scheduled digests and serve the dashboard",
	Long: `Run everything: the folder watcher, the digest scheduler and the HTTP
dashboard. Schedules come from the schedule.* settings; the dashboard
listens on server.addr.

Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP dashboard",
	Long: `Serve the read-only JSON API, rendered digests and Prometheus metrics
on server.addr without watching the notes folder.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if watchDaemon == nil {
		return notConfigured("watcher")
	}
	cmd.Println("Watching notes folder. Press Ctrl+C to stop.")
	return untilCancelled(watchDaemon.Run(cmd.Context()))
}

func runRun(cmd *cobra.Command, _ []string) error {
	if runDaemon == nil {
		return notConfigured("daemon")
	}
	cmd.Println("Scribble is running. Press Ctrl+C to stop.")
	return untilCancelled(runDaemon.Run(cmd.Context()))
}

func runServe(cmd *cobra.Command, _ []string) error {
	if httpServer == nil {
		return notConfigured("http server")
	}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			cmd.Printf("Dashboard listening on http://%s\n", settings.Server.Addr)
		}
	}
	return untilCancelled(httpServer.Serve(cmd.Context()))
}

// untilCancelled treats a cancelled context as a clean shutdown.
func untilCancelled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
