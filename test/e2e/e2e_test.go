package e2e

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

var (
	simfsBin string
	projRoot string
	testEnv  *E2ETestEnvironment
)

func TestMain(m *testing.M) {
	// Build the simfs binary once for all tests
	tmpBinDir, err := os.MkdirTemp("", "simfs-bin")
	if err != nil {
		panic(err)
	}
	simfsBin = filepath.Join(tmpBinDir, "simfs")

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot determine current file path")
	}
	projRoot = filepath.Join(filepath.Dir(thisFile), "..", "..")

	cmd := exec.Command("go", "build", "-o", simfsBin, "./cmd")
	cmd.Dir = projRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic(string(out))
	}

	testEnv, err = NewE2ETestEnvironment(simfsBin)
	if err != nil {
		panic(err)
	}

	code := m.Run()
	testEnv.Close()
	_ = os.RemoveAll(tmpBinDir)
	os.Exit(code)
}

func TestE2EShellPersistence(t *testing.T) {
	dataDir := testEnv.DataDir(t)

	out := testEnv.RunShell(t, dataDir, "mkdir docs/notes", "cd docs/notes", "write todo.txt buy milk", "exit")
	if !strings.Contains(out, "root@FileSystemSimulator: /docs/notes") {
		t.Fatalf("prompt did not follow cd:\n%s", out)
	}

	// A fresh process must see the same tree
	out = testEnv.RunShell(t, dataDir, "cat /docs/notes/todo.txt", "ls /docs", "exit")
	if !strings.Contains(out, "buy milk\n") {
		t.Fatalf("content not persisted:\n%s", out)
	}
	if !strings.Contains(out, "DIR    ") || !strings.Contains(out, "notes") {
		t.Fatalf("listing missing directory:\n%s", out)
	}

	journal, err := os.ReadFile(filepath.Join(dataDir, "journal.log"))
	if err != nil {
		t.Fatalf("failed to read journal: %v", err)
	}
	for _, want := range []string{
		"BOOT: No file system found. Formatting disk.",
		"START: mkdir docs/notes",
		"COMMIT: mkdir docs/notes",
		"COMMIT: write todo.txt (8 bytes)",
		"SHUTDOWN: File System shut down.",
		"BOOT: File System loaded successfully.",
	} {
		if !strings.Contains(string(journal), want) {
			t.Fatalf("journal missing %q:\n%s", want, journal)
		}
	}
}

func TestE2EShellErrors(t *testing.T) {
	dataDir := testEnv.DataDir(t)

	out := testEnv.RunShell(t, dataDir, "touch f.txt", "cd f.txt", "mkdir f.txt", "frobnicate", "exit")
	for _, want := range []string{
		"Error: cd f.txt: not a directory",
		"Error: mkdir f.txt: already exists",
		"'frobnicate' is not a valid command.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestE2ESeedFromHTTP(t *testing.T) {
	files := []*TestFileSpec{
		NewTestFile("/readme").WithTextContent("Hello from the seed server.").Build(),
		NewTestFile("/gone").WithError(404).Build(),
	}
	server := testEnv.StartServer(t, files)
	dataDir := testEnv.DataDir(t)

	seed := filepath.Join(dataDir, "seed.json")
	writeFile(t, seed, fmt.Sprintf(`{"nodes": [
		{"type": "dir", "path": "/srv"},
		{"type": "file", "path": "/srv/readme.txt", "sources": [
			{"type": "http", "url": "%[1]s/gone"},
			{"type": "http", "url": "%[1]s/readme"}
		]}
	]}`, server.URL))

	out := testEnv.Run(t, "", "seed", seed, "--data-dir", dataDir)
	if !strings.Contains(out, "created 2, skipped 0") {
		t.Fatalf("unexpected seed output:\n%s", out)
	}

	out = testEnv.RunShell(t, dataDir, "cat /srv/readme.txt", "exit")
	if !strings.Contains(out, "Hello from the seed server.") {
		t.Fatalf("seeded content missing:\n%s", out)
	}
}

func TestE2EMountAndRead(t *testing.T) {
	requireFuse(t)
	dataDir := testEnv.DataDir(t)
	testEnv.RunShell(t, dataDir, "mkdir docs", "write docs/hello.txt Hello, simfs!", "exit")

	inst := testEnv.StartMount(t, dataDir)
	defer inst.Stop()

	data, err := os.ReadFile(filepath.Join(inst.MountDir, "docs", "hello.txt"))
	if err != nil {
		t.Fatalf("failed to read file: %v\nstderr:\n%s", err, inst.stderr.String())
	}
	if string(data) != "Hello, simfs!" {
		t.Fatalf("content mismatch: got %q", string(data))
	}

	entries, err := os.ReadDir(filepath.Join(inst.MountDir, "docs"))
	if err != nil {
		t.Fatalf("failed to read directory: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "hello.txt" {
		t.Fatalf("unexpected entries: %v", entries)
	}

	// The mount is read-only
	if err := os.WriteFile(filepath.Join(inst.MountDir, "new.txt"), []byte("x"), 0o644); err == nil {
		t.Fatal("write through the mount unexpectedly succeeded")
	}
}

// E2ETestEnvironment manages shared resources for all e2e tests
type E2ETestEnvironment struct {
	SimFsBin string
	BaseDir  string
}

// TestFileSpec defines a mock HTTP file's content and behavior
type TestFileSpec struct {
	path        string
	content     []byte
	contentType string
	errorCode   int // 0 = success, 404, 500, etc.
}

// TestFileBuilder provides a fluent API for creating test files
type TestFileBuilder struct {
	spec TestFileSpec
}

// MountInstance represents a running "simfs mount" process
type MountInstance struct {
	cmd      *exec.Cmd
	MountDir string
	stderr   *bytes.Buffer
}

// NewTestFile creates a new test file builder with the given path
func NewTestFile(path string) *TestFileBuilder {
	return &TestFileBuilder{spec: TestFileSpec{path: path, contentType: "text/plain"}}
}

// WithTextContent sets text content and appropriate content type
func (b *TestFileBuilder) WithTextContent(content string) *TestFileBuilder {
	b.spec.content = []byte(content)
	b.spec.contentType = "text/plain"
	return b
}

// WithError makes the file return an HTTP error status
func (b *TestFileBuilder) WithError(statusCode int) *TestFileBuilder {
	b.spec.errorCode = statusCode
	return b
}

// Build creates the final TestFileSpec
func (b *TestFileBuilder) Build() *TestFileSpec {
	return &b.spec
}

// NewE2ETestEnvironment creates the shared scratch directory
func NewE2ETestEnvironment(bin string) (*E2ETestEnvironment, error) {
	baseDir, err := os.MkdirTemp("", "simfs-e2e-tests")
	if err != nil {
		return nil, err
	}
	return &E2ETestEnvironment{SimFsBin: bin, BaseDir: baseDir}, nil
}

// Close cleans up the test environment
func (env *E2ETestEnvironment) Close() {
	if env.BaseDir != "" {
		_ = os.RemoveAll(env.BaseDir) // Best effort cleanup
	}
}

// DataDir returns a fresh data directory for the calling test
func (env *E2ETestEnvironment) DataDir(t *testing.T) string {
	t.Helper()
	testID := strings.ReplaceAll(t.Name(), "/", "_")
	dir := filepath.Join(env.BaseDir, "data-"+testID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create data dir: %v", err)
	}
	return dir
}

// StartServer serves files from a mock HTTP server for the calling test
func (env *E2ETestEnvironment) StartServer(t *testing.T, files []*TestFileSpec) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for _, file := range files {
		mux.HandleFunc(file.path, func(w http.ResponseWriter, r *http.Request) {
			if file.errorCode != 0 {
				http.Error(w, fmt.Sprintf("Mock error %d", file.errorCode), file.errorCode)
				return
			}
			w.Header().Set("Content-Type", file.contentType)
			w.WriteHeader(http.StatusOK)
			if r.Method != http.MethodHead {
				_, _ = w.Write(file.content)
			}
		})
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// Run executes the binary to completion and returns stdout
func (env *E2ETestEnvironment) Run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	cmd := exec.Command(env.SimFsBin, args...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), "NO_COLOR=1")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("simfs %s failed: %v\nstdout:\n%s\nstderr:\n%s",
			strings.Join(args, " "), err, stdout.String(), stderr.String())
	}
	return stdout.String()
}

// RunShell pipes commands into the interactive shell
func (env *E2ETestEnvironment) RunShell(t *testing.T, dataDir string, commands ...string) string {
	t.Helper()
	return env.Run(t, strings.Join(commands, "\n")+"\n", "shell", "--data-dir", dataDir, "-v", "1")
}

// StartMount mounts dataDir and waits until the mount answers
func (env *E2ETestEnvironment) StartMount(t *testing.T, dataDir string) *MountInstance {
	t.Helper()
	mountDir := filepath.Join(dataDir, "mnt")
	if err := os.MkdirAll(mountDir, 0o755); err != nil {
		t.Fatalf("Failed to create mount dir: %v", err)
	}

	inst := &MountInstance{MountDir: mountDir, stderr: &bytes.Buffer{}}
	inst.cmd = exec.Command(env.SimFsBin, "mount", mountDir, "--umount", "--data-dir", dataDir, "-v", "4")
	inst.cmd.Stderr = inst.stderr
	if err := inst.cmd.Start(); err != nil {
		t.Fatalf("Failed to start simfs: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if entries, err := os.ReadDir(mountDir); err == nil && len(entries) > 0 {
			return inst
		}
		time.Sleep(100 * time.Millisecond)
	}
	inst.Stop()
	t.Fatalf("mount did not become ready\nstderr:\n%s", inst.stderr.String())
	return nil
}

// Stop signals the process to unmount and waits for it to exit
func (inst *MountInstance) Stop() {
	if inst.cmd.Process == nil {
		return
	}
	_ = inst.cmd.Process.Signal(os.Interrupt)
	done := make(chan struct{})
	go func() {
		_ = inst.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		_ = inst.cmd.Process.Kill()
		_ = exec.Command("fusermount", "-u", inst.MountDir).Run()
	}
}

func requireFuse(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("FUSE tests only run on linux")
	}
	if _, err := os.Stat("/dev/fuse"); err != nil {
		t.Skip("/dev/fuse not available")
	}
	if _, err := exec.LookPath("fusermount"); err != nil {
		t.Skip("fusermount not installed")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}
