package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-outfit-kit/internal/settings"

	"github.com/spf13/cobra"
)

// settingsCmd は、API キー・ゲートウェイ URL・画像モデルを保存する設定ファイルを扱うのだ。
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "保存された設定（api_key / base_url / model）を表示・更新するのだ。",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "現在の設定を表示するのだ（API キーは伏せ字なのだ）。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := loadEnvConfig().SettingsFile
		s, err := settings.Load(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "file:     %s\n", path)
		fmt.Fprintf(out, "api_key:  %s\n", s.MaskedAPIKey())
		fmt.Fprintf(out, "base_url: %s\n", s.BaseURL)
		fmt.Fprintf(out, "model:    %s\n", s.Model)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "設定をひとつ更新して保存するのだ。",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := loadEnvConfig().SettingsFile
		s, err := settings.Load(path)
		if err != nil {
			return err
		}
		if err := s.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := settings.Save(path, s); err != nil {
			return err
		}
		slog.Info("設定を保存したのだ", "key", args[0], "path", path)
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
}
