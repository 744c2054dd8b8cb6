package builder

import (
	"context"
	"fmt"
	"slices"

	"github.com/shouni/go-remote-io/remoteio"
	"github.com/shouni/go-remote-io/remoteio/gcs"
	"github.com/shouni/go-remote-io/remoteio/s3"
)

// IO は入出力に使う remoteio の Reader/Writer と、その後始末をまとめたものなのだ。
type IO struct {
	Reader remoteio.InputReader
	Writer remoteio.OutputWriter
	close  func() error
}

// Close はクラウドのクライアントを持っていれば閉じるのだ。
func (o *IO) Close() error {
	if o == nil || o.close == nil {
		return nil
	}
	return o.close()
}

// InitializeIO は入出力先のパスを見て、必要なクライアントだけを作るのだ。
// gs:// があれば GCS、s3:// があれば S3、どちらも無ければローカルだけなのだ。
func InitializeIO(ctx context.Context, paths ...string) (*IO, error) {
	var (
		factory remoteio.IOFactory
		err     error
	)
	switch {
	case slices.ContainsFunc(paths, remoteio.IsGCSURI):
		factory, err = gcs.New(ctx)
	case slices.ContainsFunc(paths, remoteio.IsS3URI):
		factory, err = s3.New(ctx)
	default:
		return &IO{
			Reader: remoteio.NewUniversalInputReader(nil, nil),
			Writer: remoteio.NewUniversalIOWriter(nil, nil),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ストレージクライアントの初期化に失敗したのだ: %w", err)
	}

	reader, err := factory.InputReader()
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	writer, err := factory.OutputWriter()
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return &IO{Reader: reader, Writer: writer, close: factory.Close}, nil
}
