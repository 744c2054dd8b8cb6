package publisher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shouni/go-remote-io/remoteio"
)

// fileNameSanitizer はファイル名として使用できない文字を置換します。
var fileNameSanitizer = strings.NewReplacer(
	"/", "_",
	`\`, "_",
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "_",
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から最終的な出力パスを生成します。
// baseDir が gs:// または s3:// の場合は、URI の末尾にファイル名を結合します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	if strings.TrimSpace(fileName) == "" {
		return "", fmt.Errorf("ファイル名が空です")
	}
	name := SanitizeFileName(fileName)

	if remoteio.IsRemoteURI(baseDir) {
		_, rest, _ := strings.Cut(baseDir, "://")
		if strings.Trim(rest, "/") == "" {
			return "", fmt.Errorf("出力先 URI のバケット名が空です: %s", baseDir)
		}
		return strings.TrimRight(baseDir, "/") + "/" + name, nil
	}

	if baseDir == "" {
		baseDir = "."
	}
	return filepath.Join(baseDir, name), nil
}

// SanitizeFileName は都市名などをファイル名に使える形に変換します。
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "outfit"
	}
	return fileNameSanitizer.Replace(name)
}
