package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestForTarget(t *testing.T) {
	target := filepath.Join(t.TempDir(), "manifest.yaml")

	lock := ForTarget(target)
	if lock.Path() != target+".lock" {
		t.Errorf("Expected lock path %s.lock, got %s", target, lock.Path())
	}
}

func TestLockUnlock(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), "test.lock"))

	if err := lock.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}
}

func TestTryLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock1 := NewFileLock(lockPath)
	lock2 := NewFileLock(lockPath)

	acquired, err := lock1.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Fatal("First TryLock should succeed")
	}

	acquired, err = lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if acquired {
		t.Error("Second TryLock should fail when lock is held")
	}

	if err := lock1.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	acquired, err = lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Error("TryLock should succeed after unlock")
	}
	lock2.Unlock()
}

func TestLockContext_GivesUpWhenCancelled(t *testing.T) {
	target := filepath.Join(t.TempDir(), "manifest.yaml")

	holder := ForTarget(target)
	if err := holder.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := ForTarget(target).LockContext(ctx, 5*time.Millisecond)
	if err == nil {
		t.Fatal("Expected LockContext to fail while the lock is held")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}

	// WriteFile must not touch the target when it cannot lock
	if err := WriteFile(ctx, target, []byte("x"), 0644); err == nil {
		t.Error("Expected WriteFile to fail with an expired context")
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("Target should not exist, stat err = %v", err)
	}
}

func TestAtomicWrite(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		content string
		perm    os.FileMode
	}{
		{name: "new file", content: "run_id: NS500-001\n", perm: 0644},
		{name: "overwrite", initial: "old", content: "new", perm: 0644},
		{name: "private permissions", content: "secret", perm: 0600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			target := filepath.Join(dir, "manifest.yaml")
			if tt.initial != "" {
				if err := os.WriteFile(target, []byte(tt.initial), 0644); err != nil {
					t.Fatalf("Failed to write initial file: %v", err)
				}
			}

			if err := AtomicWrite(target, []byte(tt.content), tt.perm); err != nil {
				t.Fatalf("AtomicWrite failed: %v", err)
			}

			got, err := os.ReadFile(target)
			if err != nil {
				t.Fatalf("Failed to read file: %v", err)
			}
			if string(got) != tt.content {
				t.Errorf("Expected content %q, got %q", tt.content, string(got))
			}

			info, err := os.Stat(target)
			if err != nil {
				t.Fatalf("Failed to stat file: %v", err)
			}
			if info.Mode().Perm() != tt.perm {
				t.Errorf("Expected permissions %v, got %v", tt.perm, info.Mode().Perm())
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatalf("Failed to read directory: %v", err)
			}
			for _, e := range entries {
				if strings.Contains(e.Name(), ".tmp-") {
					t.Errorf("Temp file left behind: %s", e.Name())
				}
			}
		})
	}
}

func TestAtomicWriteCreatesDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "reports", "run1", "manifest.json")

	if err := AtomicWrite(target, []byte("{}"), 0644); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("Expected file to exist: %v", err)
	}
}

func TestWriteFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out", "manifest.yaml")

	if err := WriteFile(context.Background(), target, []byte("samples: []\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(got) != "samples: []\n" {
		t.Errorf("Unexpected content %q", string(got))
	}

	// The lock is released afterwards
	acquired, err := ForTarget(target).TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Error("Lock should be free after WriteFile returns")
	}
}

func TestConcurrentWriteFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "manifest.yaml")

	const goroutines = 10
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			content := []byte(fmt.Sprintf("writer: %02d\n", id))
			if err := WriteFile(context.Background(), target, content, 0644); err != nil {
				t.Errorf("WriteFile failed for goroutine %d: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	// Exactly one complete write survives
	if len(content) != len("writer: 00\n") || !strings.HasPrefix(string(content), "writer: ") {
		t.Errorf("Unexpected content %q", string(content))
	}
}
