package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

func TestResolveLogFilePathUsesWorkdirLogs(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}
	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("resolve tmp dir symlink failed: %v", err)
	}
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("resolve got dir symlink failed: %v", err)
	}
	if realGot != filepath.Join(realTmpDir, defaultLogDirName) {
		t.Fatalf("unexpected log dir: %s", realGot)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
}

func TestReleaseModeWritesEventToFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "payroll.log"})
	log.Info("payout_created")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "payroll.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), `"event":"payout_created"`) {
		t.Fatalf("expected json event key, got=%s", string(content))
	}
}

func TestDebugModeSkipsFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{Dir: tmpDir, Filename: "debug.log"})
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestGormLoggerLevelByMode(t *testing.T) {
	if NewGormLogger("debug").level != gormlogger.Info {
		t.Fatalf("debug mode should trace all sql")
	}
	release := NewGormLogger("release")
	if release.level != gormlogger.Warn {
		t.Fatalf("release mode should only log warnings")
	}
	silent := release.LogMode(gormlogger.Silent).(*GormLogger)
	if silent.level != gormlogger.Silent || release.level != gormlogger.Warn {
		t.Fatalf("LogMode should return an adjusted copy")
	}
	called := false
	silent.Trace(context.Background(), time.Now(), func() (string, int64) {
		called = true
		return "select 1", 1
	}, nil)
	if called {
		t.Fatalf("silent logger should not render sql")
	}
}
