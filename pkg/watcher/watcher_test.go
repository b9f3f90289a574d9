package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() {
			callCount.Add(1)
		})
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_LastCallbackWins(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var got atomic.Int32
	d.Trigger(func() { got.Store(1) })
	d.Trigger(func() { got.Store(2) })
	time.Sleep(100 * time.Millisecond)

	if v := got.Load(); v != 2 {
		t.Errorf("expected last callback to run, got %d", v)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool
	d.Trigger(func() {
		called.Store(true)
	})
	d.Cancel()
	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func waitForChange(t *testing.T, w *Watcher, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-w.Changed():
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workspace.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	var changes atomic.Int32
	w, err := NewWatcher(dir,
		WithDebounceDuration(30*time.Millisecond),
		WithOnChange(func() { changes.Add(1) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"workspace": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitForChange(t, w, 2*time.Second) {
		t.Fatal("expected change notification")
	}
	if changes.Load() < 1 {
		t.Error("expected OnChange callback")
	}
}

func TestWatcher_PollingFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.jsonl")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(dir,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithDebounceDuration(20*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("expected polling mode")
	}

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"order_id": "o1"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitForChange(t, w, 2*time.Second) {
		t.Fatal("expected change notification in polling mode")
	}
}

func TestWatcher_IgnoresUnwatchedFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir,
		WithFiles("workspace.json"),
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithDebounceDuration(20*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if waitForChange(t, w, 200*time.Millisecond) {
		t.Fatal("unexpected change for unwatched file")
	}
}

func TestWatcher_EnvForcePoll(t *testing.T) {
	t.Setenv("OV_FORCE_POLL", "1")

	w, err := NewWatcher(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Error("expected OV_FORCE_POLL to force polling")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
	if !w.IsStarted() {
		t.Error("expected started")
	}
	w.Stop()
	w.Stop()
	if w.IsStarted() {
		t.Error("expected stopped")
	}
	if err := w.Start(); err != nil {
		t.Errorf("restart failed: %v", err)
	}
	w.Stop()
}

func TestWatcher_NotDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != ErrNotDirectory {
		t.Errorf("expected ErrNotDirectory, got %v", err)
	}
}

func TestWatcher_RelevantSkipsTempFiles(t *testing.T) {
	w := &Watcher{}
	for name, want := range map[string]bool{
		"workspace.json":           true,
		".explorer-state-123.json": false,
		"orders.jsonl~":            false,
		"results.json.swp":         false,
		"x/imports.json":           true,
	} {
		if got := w.relevant(name); got != want {
			t.Errorf("relevant(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFilesystemType_String(t *testing.T) {
	cases := map[FilesystemType]string{
		FSTypeUnknown: "unknown",
		FSTypeLocal:   "local",
		FSTypeNFS:     "nfs",
		FSTypeSMB:     "smb",
		FSTypeFUSE:    "fuse",
		FSType9P:      "9p",
	}
	for ft, want := range cases {
		if got := ft.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", ft, got, want)
		}
	}
}

func TestDetectFilesystemType_EmptyPath(t *testing.T) {
	if got := DetectFilesystemType(""); got != FSTypeUnknown {
		t.Errorf("expected unknown for empty path, got %v", got)
	}
}

func TestEnvBool(t *testing.T) {
	for value, want := range map[string]bool{
		"1": true, "true": true, "YES": true, " on ": true,
		"0": false, "false": false, "": false, "maybe": false,
	} {
		t.Setenv("OV_TEST_BOOL", value)
		if got := envBool("OV_TEST_BOOL"); got != want {
			t.Errorf("envBool(%q) = %v, want %v", value, got, want)
		}
	}
}
