package testutil

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"time"

	"github.com/joho/godotenv"

	"github.com/jasmine-go/jasmine/internal/event"
	"github.com/jasmine-go/jasmine/internal/project"
	"github.com/jasmine-go/jasmine/internal/server"
	"github.com/jasmine-go/jasmine/internal/watch"
)

// TestServer wraps a server instance for testing
type TestServer struct {
	Server  *server.Server
	Bus     *event.Bus
	BaseURL string
	Project *TempProject
	watcher *watch.Watcher
	port    int
}

// TestServerOption configures TestServer
type TestServerOption func(*testServerConfig)

type testServerConfig struct {
	files   map[string]string
	envFile string
	watch   bool
}

// WithFiles sets the project files (default ExampleProject).
func WithFiles(files map[string]string) TestServerOption {
	return func(c *testServerConfig) {
		c.files = files
	}
}

// WithEnvFile sets the .env file to load
func WithEnvFile(path string) TestServerOption {
	return func(c *testServerConfig) {
		c.envFile = path
	}
}

// WithWatch starts a file watcher on the project.
func WithWatch() TestServerOption {
	return func(c *testServerConfig) {
		c.watch = true
	}
}

// StartTestServer creates a temp project and serves it.
func StartTestServer(opts ...TestServerOption) (*TestServer, error) {
	cfg := &testServerConfig{files: ExampleProject}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.envFile != "" {
		_ = godotenv.Load(cfg.envFile)
	}

	proj, err := NewTempProject(cfg.files)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	port, err := findAvailablePort()
	if err != nil {
		proj.Cleanup()
		return nil, fmt.Errorf("failed to find available port: %w", err)
	}

	bus := event.NewBus()
	serverConfig := server.DefaultConfig()
	serverConfig.Port = port

	srv, err := server.New(serverConfig, project.Options{ProjectRoot: proj.Dir, Bus: bus})
	if err != nil {
		proj.Cleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	ts := &TestServer{
		Server:  srv,
		Bus:     bus,
		BaseURL: fmt.Sprintf("http://localhost:%d", port),
		Project: proj,
		port:    port,
	}

	if cfg.watch {
		ts.watcher, err = watch.ForProject(srv.Project(), bus)
		if err != nil {
			ts.Stop()
			return nil, fmt.Errorf("failed to watch project: %w", err)
		}
		ts.watcher.Start()
	}

	go func() {
		_ = srv.Start()
	}()

	if err := waitForServer(ts.BaseURL, 10*time.Second); err != nil {
		ts.Stop()
		return nil, fmt.Errorf("server failed to start: %w", err)
	}
	return ts, nil
}

// Stop shuts down the test server and cleans up
func (ts *TestServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if ts.watcher != nil {
		ts.watcher.Stop()
	}
	if ts.Server != nil {
		if err := ts.Server.Shutdown(ctx); err != nil {
			return err
		}
	}
	if ts.Bus != nil {
		ts.Bus.Close()
	}
	if ts.Project != nil {
		ts.Project.Cleanup()
	}
	return nil
}

// Client returns a new test client for this server
func (ts *TestServer) Client() *TestClient {
	return NewTestClient(ts.BaseURL)
}

// SSEClient returns a new SSE client for this server
func (ts *TestServer) SSEClient() *SSEClient {
	return NewSSEClient(ts.BaseURL)
}

// findAvailablePort finds an available TCP port
func findAvailablePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// waitForServer waits for the server to be ready
func waitForServer(baseURL string, timeout time.Duration) error {
	client := NewTestClient(baseURL)
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(context.Background(), "/__project__")
		if err == nil && resp.IsSuccess() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server not ready after %v", timeout)
}

// SkipIfMissingTool reports whether a binary needed by a test is missing.
func SkipIfMissingTool(name string) bool {
	_, err := exec.LookPath(name)
	return err != nil
}
