package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/reaper/internal/config"
	"github.com/verte-zerg/reaper/internal/model"
	"github.com/verte-zerg/reaper/internal/store"
)

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	meta, err := toml.Decode(defaultConfigTemplate(), &cfg)
	if err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if len(meta.Undecoded()) != 0 {
		t.Fatalf("unexpected keys: %v", meta.Undecoded())
	}
	if cfg.Session.Goal != nil {
		t.Fatalf("expected commented template to leave values unset")
	}
}

func TestDefaultConfigTemplateUncommented(t *testing.T) {
	var b strings.Builder
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		trimmed := strings.TrimPrefix(line, "# ")
		if strings.Contains(trimmed, " = ") {
			b.WriteString(trimmed)
		} else if strings.HasPrefix(line, "[") {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	var cfg config.FileConfig
	meta, err := toml.Decode(b.String(), &cfg)
	if err != nil {
		t.Fatalf("decode uncommented template: %v\n%s", err, b.String())
	}
	if len(meta.Undecoded()) != 0 {
		t.Fatalf("template lists unknown keys: %v", meta.Undecoded())
	}
	if cfg.Session.AutosaveSeconds == nil || *cfg.Session.AutosaveSeconds != defaultAutosave {
		t.Fatalf("expected autosave default in template")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != defaultLogLevel {
		t.Fatalf("expected log level default in template")
	}
}

func TestValidateConfig(t *testing.T) {
	if err := validateConfig(model.Config{Goal: 100, PromptWords: 2, AutosaveSeconds: 5}); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
	bad := []model.Config{
		{Goal: -1},
		{PromptWords: -1},
		{AutosaveSeconds: -1},
	}
	for _, cfg := range bad {
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	cmd := newRootCmd()
	goal := 0
	fromFile := 250
	applyIntConfig(cmd, "goal", &goal, &fromFile)
	if goal != 250 {
		t.Fatalf("expected config value applied, got %d", goal)
	}

	if err := cmd.Flags().Set("goal", "10"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	goal = 10
	applyIntConfig(cmd, "goal", &goal, &fromFile)
	if goal != 10 {
		t.Fatalf("expected explicit flag to win, got %d", goal)
	}

	zen := false
	applyBoolConfig(cmd, "zen", &zen, nil)
	if zen {
		t.Fatalf("expected nil config value to be ignored")
	}
}

func TestBuildPrompt(t *testing.T) {
	got, err := buildPrompt(model.Config{Prompt: true, PromptWords: 2})
	if err != nil {
		t.Fatalf("build prompt: %v", err)
	}
	if !strings.HasPrefix(got, "Write about: ") {
		t.Fatalf("unexpected prompt %q", got)
	}
	if got, _ := buildPrompt(model.Config{Prompt: false, PromptWords: 2}); got != "" {
		t.Fatalf("expected no prompt when disabled, got %q", got)
	}

	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("lantern\n"), 0o644); err != nil {
		t.Fatalf("write words: %v", err)
	}
	got, err = buildPrompt(model.Config{Prompt: true, PromptWords: 3, WordListPath: path})
	if err != nil {
		t.Fatalf("build prompt from file: %v", err)
	}
	if got != "Write about: lantern" {
		t.Fatalf("unexpected prompt %q", got)
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, []byte("a\nb\n"), 0o644); err != nil {
		t.Fatalf("write words: %v", err)
	}
	if _, err := buildPrompt(model.Config{Prompt: true, PromptWords: 1, WordListPath: empty}); err == nil {
		t.Fatalf("expected error for unusable word list")
	}
}

func TestWriteConfigTemplateKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reaper", "config.toml")
	if err := writeConfigTemplate(path); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := os.WriteFile(path, []byte("[session]\ngoal = 3\n"), 0o644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := writeConfigTemplate(path); err != nil {
		t.Fatalf("write template again: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "[session]\ngoal = 3\n" {
		t.Fatalf("expected existing config untouched, got %q", data)
	}
}

func TestWriteLastSessionEvents(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "reaper.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()
	ctx := context.Background()
	end := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	events := []model.SessionEvent{
		{Seq: 0, Type: "activated", At: end.Add(-time.Minute), TimeLeftMs: 10000, Status: "SAFE"},
		{Seq: 1, Type: "death", At: end, TimeLeftMs: 0, Status: "DEAD"},
	}
	if _, err := st.InsertSession(ctx, model.SessionStats{UID: "u1", StartedAt: end.Add(-time.Minute), EndedAt: end}, events); err != nil {
		t.Fatalf("insert: %v", err)
	}
	sessions, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	var buf bytes.Buffer
	if err := writeLastSessionEvents(ctx, &buf, st, sessions); err != nil {
		t.Fatalf("write events: %v", err)
	}
	var dump sessionDump
	if err := yaml.Unmarshal(buf.Bytes(), &dump); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dump.Session != "u1" || len(dump.Events) != 2 || dump.Events[1].Type != "death" {
		t.Fatalf("unexpected dump %+v", dump)
	}

	if err := writeLastSessionEvents(ctx, &buf, st, nil); err == nil {
		t.Fatalf("expected error without sessions")
	}
}
