package cmd

import (
	"fmt"

	"github.com/shouni/go-outfit-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// pingCmd は、現在の認証情報でゲートウェイとの疎通を確認するのだ。
var pingCmd = &cobra.Command{
	Use:     "ping",
	Short:   "ゲートウェイとの疎通と API キーを確認するのだ。",
	PreRunE: preRunAppE,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pipeline.ExecutePing(cmd.Context(), loadConfig()); err != nil {
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return err
	},
}
