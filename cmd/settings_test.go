package cmd

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// newTestRoot は Execute と同じ組み立てのルートコマンドを返すのだ。
func newTestRoot(t *testing.T) *cobra.Command {
	t.Helper()
	root := clibase.NewRootCmd(appName, addAppFlags, initLogger)
	root.AddCommand(commands()...)
	t.Cleanup(func() {
		clibase.Flags = clibase.GlobalFlags{}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	})
	return root
}

func TestSettingsCommand(t *testing.T) {
	t.Setenv("OUTFIT_SETTINGS_FILE", filepath.Join(t.TempDir(), "settings.yaml"))
	root := newTestRoot(t)

	root.SetArgs([]string{"settings", "set", "api_key", "sk-secret-1234"})
	if err := root.Execute(); err != nil {
		t.Fatalf("settings set に失敗したのだ: %v", err)
	}

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"settings", "show"})
	if err := root.Execute(); err != nil {
		t.Fatalf("settings show に失敗したのだ: %v", err)
	}
	if !strings.Contains(out.String(), "**********1234") || strings.Contains(out.String(), "sk-secret") {
		t.Errorf("API キーが伏せ字になっていないのだ:\n%s", out.String())
	}

	root.SetArgs([]string{"settings", "set", "theme", "dark"})
	if err := root.Execute(); err == nil {
		t.Error("未知のキーでエラーにならなかったのだ")
	}
}

func TestConfigFlag(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "env.yaml")
	flagPath := filepath.Join(t.TempDir(), "flag.yaml")
	t.Setenv("OUTFIT_SETTINGS_FILE", envPath)
	root := newTestRoot(t)

	root.SetArgs([]string{"--config", flagPath, "settings", "set", "base_url", "https://relay.example.com/v1"})
	if err := root.Execute(); err != nil {
		t.Fatalf("settings set に失敗したのだ: %v", err)
	}
	if _, err := os.Stat(flagPath); err != nil {
		t.Errorf("--config の場所に保存されていないのだ: %v", err)
	}
	if _, err := os.Stat(envPath); !os.IsNotExist(err) {
		t.Errorf("環境変数の場所には書かないはずなのだ: %v", err)
	}

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"-C", flagPath, "settings", "show"})
	if err := root.Execute(); err != nil {
		t.Fatalf("settings show に失敗したのだ: %v", err)
	}
	if !strings.Contains(out.String(), "https://relay.example.com/v1") {
		t.Errorf("--config の設定が読まれていないのだ:\n%s", out.String())
	}
}

func TestVerboseFlag(t *testing.T) {
	t.Setenv("OUTFIT_SETTINGS_FILE", filepath.Join(t.TempDir(), "settings.yaml"))
	t.Setenv("LOG_LEVEL", "warn")
	root := newTestRoot(t)

	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--verbose", "settings", "show"})
	if err := root.Execute(); err != nil {
		t.Fatalf("settings show に失敗したのだ: %v", err)
	}
	if !clibase.Flags.Verbose {
		t.Fatal("--verbose が反映されていないのだ")
	}
	if !slog.Default().Enabled(t.Context(), slog.LevelDebug) {
		t.Error("--verbose なら debug ログが有効になるはずなのだ")
	}
}
