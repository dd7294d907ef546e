package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	dispatcher *mockDispatcher
	digests    *mockDigestCompiler
	backlog    *mockBacklog
	library    *mockLibrary
	settings   *mockSettings
	scheduler  *mockScheduler
	watcher    *mockDaemon
	daemon     *mockDaemon
	server     *mockServer
}

// setupTestServices installs fresh mocks and returns them with a cleanup
// that clears every service.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		dispatcher: &mockDispatcher{},
		digests:    &mockDigestCompiler{},
		backlog:    &mockBacklog{},
		library:    &mockLibrary{},
		settings:   newMockSettings(),
		scheduler:  &mockScheduler{},
		watcher:    &mockDaemon{},
		daemon:     &mockDaemon{},
		server:     &mockServer{},
	}
	SetServices(&Services{
		Dispatcher: ts.dispatcher,
		Digests:    ts.digests,
		Backlog:    ts.backlog,
		Library:    ts.library,
		Settings:   ts.settings,
		Scheduler:  ts.scheduler,
		Watcher:    ts.watcher,
		Daemon:     ts.daemon,
		HTTP:       ts.server,
	})
	return ts, func() { SetServices(&Services{}) }
}

// resetFlags restores every flag to its default so runs do not leak into
// each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "scribble", rootCmd.Use)
}

func TestRootCmd_HasGlobalFlags(t *testing.T) {
	for _, name := range []string{"verbose", "config-dir", "memory"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "v", rootCmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestRootCmd_Subcommands(t *testing.T) {
	want := []string{
		"backlog", "config", "content", "digest", "mcp", "process",
		"run", "schedule", "serve", "stats", "tags", "tasks", "version", "watch",
	}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
}

func TestRootCmd_BootstrapReceivesGlobalFlags(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	var got Options
	closed := false
	SetBootstrap(func(_ context.Context, opts Options) (*Services, error) {
		got = opts
		return &Services{
			Library: &mockLibrary{},
			Close:   func() error { closed = true; return nil },
		}, nil
	})
	defer SetBootstrap(nil)

	_, err := execute(t, "tags", "--config-dir", "/tmp/scribble-test", "--memory")
	require.NoError(t, err)
	assert.Equal(t, Options{ConfigDir: "/tmp/scribble-test", Memory: true}, got)
	assert.True(t, closed)
}

func TestRootCmd_BootstrapErrorStopsCommand(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	SetBootstrap(func(context.Context, Options) (*Services, error) {
		return nil, errors.New("open database: disk full")
	})
	defer SetBootstrap(nil)

	_, err := execute(t, "stats")
	assert.EqualError(t, err, "open database: disk full")
}

func TestRootCmd_VersionSkipsBootstrap(t *testing.T) {
	called := false
	SetBootstrap(func(context.Context, Options) (*Services, error) {
		called = true
		return &Services{}, nil
	})
	defer SetBootstrap(nil)

	_, err := execute(t, "version")
	require.NoError(t, err)
	assert.False(t, called)
}

func TestCommands_NotConfigured(t *testing.T) {
	SetServices(&Services{})

	tests := [][]string{
		{"process", "a.txt"},
		{"process"},
		{"backlog"},
		{"watch"},
		{"run"},
		{"serve"},
		{"digest", "weekly"},
		{"content", "list"},
		{"tasks", "list"},
		{"tags"},
		{"stats"},
		{"config", "show"},
		{"schedule", "list"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := execute(t, args...)
			assert.ErrorContains(t, err, "not configured")
		})
	}
}
