package parser

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shouni/go-outfit-kit/pkg/apperr"
)

const tokyoAdvice = `{"weather":{"city":"Tokyo","temp":"18","tempRange":"14° / 21°","condition":"Partly Cloudy","humidity":"60%"},"outfit":[{"id":"1","name":"Trench Coat","color":"Beige","type":"top"},{"id":"2","name":"Wide Trousers","color":"Charcoal","type":"bottom"},{"id":"3","name":"Loafers","color":"Black","type":"shoes"},{"id":"4","name":"Tote Bag","color":"Tan","type":"accessory"}]}`

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "フェンスなし", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json フェンス", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "大文字の JSON フェンス", in: "```JSON\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "言語指定なし", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "前後の空白", in: "  \n```json {\"a\":1} ```  \n", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.in); got != tt.want {
				t.Errorf("期待値 %q, 実際の値 %q", tt.want, got)
			}
		})
	}
}

func TestParseAdvice(t *testing.T) {
	t.Run("気温に度記号が付与されること", func(t *testing.T) {
		advice, err := ParseAdvice(tokyoAdvice)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if advice.Weather.Temperature != "18°" {
			t.Errorf("期待値 %q, 実際の値 %q", "18°", advice.Weather.Temperature)
		}
		if len(advice.Outfit) != 4 || advice.Outfit[0].Describe() != "Beige Trench Coat" {
			t.Errorf("コーディネートが違います: %+v", advice.Outfit)
		}
	})

	t.Run("フェンスの有無で結果が同じこと", func(t *testing.T) {
		plain, err := ParseAdvice(tokyoAdvice)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		fenced, err := ParseAdvice("```json\n" + tokyoAdvice + "\n```")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if plain.Weather != fenced.Weather || plain.Outfit.Describe() != fenced.Outfit.Describe() {
			t.Errorf("結果が一致しません: %+v != %+v", plain, fenced)
		}
	})

	t.Run("度記号が既にあれば変更しないこと", func(t *testing.T) {
		advice, err := ParseAdvice(`{"weather":{"city":"Oslo","temp":"-3°","tempRange":"-6° / -1°","condition":"Snow"},"outfit":[]}`)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if advice.Weather.Temperature != "-3°" {
			t.Errorf("期待値 %q, 実際の値 %q", "-3°", advice.Weather.Temperature)
		}
	})

	t.Run("数値の気温も受け付けること", func(t *testing.T) {
		advice, err := ParseAdvice(`{"weather":{"city":"Paris","temp":21.5,"tempRange":"15° / 23°","condition":"Sunny","humidity":40},"outfit":[{"id":1,"name":"Shirt","color":"White","type":"top"}]}`)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if advice.Weather.Temperature != "21.5°" || advice.Weather.Humidity != "40" || advice.Outfit[0].ID != "1" {
			t.Errorf("数値が文字列に変換されていません: %+v", advice)
		}
	})

	invalid := []struct {
		name string
		in   string
	}{
		{name: "前置きの文章", in: "Here is your outfit: " + tokyoAdvice},
		{name: "JSON ではない", in: "Sorry, I cannot help with that."},
		{name: "weather が無い", in: `{"outfit":[]}`},
		{name: "都市名が空", in: `{"weather":{"city":"","temp":"1","tempRange":"a","condition":"b"},"outfit":[]}`},
		{name: "アイテム名が空", in: `{"weather":{"city":"X","temp":"1","tempRange":"a","condition":"b"},"outfit":[{"name":""}]}`},
		{name: "気温がオブジェクト", in: `{"weather":{"city":"X","temp":{"v":1},"tempRange":"a","condition":"b"},"outfit":[]}`},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAdvice(tt.in)
			if !apperr.IsKind(err, apperr.KindFormat) {
				t.Fatalf("KindFormat を期待しましたが %v でした", err)
			}
			if err.Error() != ErrInvalidFormat {
				t.Errorf("期待値 %q, 実際の値 %q", ErrInvalidFormat, err.Error())
			}
		})
	}
}

func TestParseFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "advice.json")
	if err := os.WriteFile(path, []byte(tokyoAdvice), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewAdviceParser(nil)
	advice, err := p.ParseFromPath(context.Background(), path)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if advice.Weather.City != "Tokyo" {
		t.Errorf("期待値 %q, 実際の値 %q", "Tokyo", advice.Weather.City)
	}

	if _, err := p.ParseFromPath(context.Background(), filepath.Join(dir, "missing.json")); err == nil {
		t.Error("存在しないファイルでエラーになりませんでした")
	}
}

// memReader は URI ごとの内容を返す remoteio.InputReader です。
type memReader struct {
	files  map[string]string
	opened []string
}

func (r *memReader) Open(_ context.Context, path string) (io.ReadCloser, error) {
	r.opened = append(r.opened, path)
	body, ok := r.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (r *memReader) List(_ context.Context, _ string, _ func(string) error) error {
	return nil
}

func TestParseFromPath_InputReader(t *testing.T) {
	const uri = "gs://outfit-bucket/tokyo_advice.json"
	r := &memReader{files: map[string]string{uri: tokyoAdvice, "gs://outfit-bucket/empty.json": "  \n"}}
	p := NewAdviceParser(r)

	advice, err := p.ParseFromPath(context.Background(), uri)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if advice.Weather.City != "Tokyo" || len(advice.Outfit) != 4 {
		t.Errorf("内容が違います: %+v", advice)
	}
	if len(r.opened) != 1 || r.opened[0] != uri {
		t.Errorf("InputReader を通して読み込んでいません: %v", r.opened)
	}

	if _, err := p.ParseFromPath(context.Background(), "gs://outfit-bucket/empty.json"); err == nil {
		t.Error("空のファイルでエラーになりませんでした")
	}
}

func TestParseAdvice_UnknownCategory(t *testing.T) {
	advice, err := ParseAdvice(`{"weather":{"city":"Oslo","temp":"3","tempRange":"0°/5°","condition":"Snow"},"outfit":[{"id":"1","name":"Parka","color":"Navy","type":"outerwear"},{"id":"2","name":"Boots","color":"Brown","type":"shoes"}]}`)
	if err != nil {
		t.Fatalf("未知の種別でエラーになりました: %v", err)
	}
	if advice.Outfit[0].Category.Valid() || advice.Outfit[0].Category != "outerwear" {
		t.Errorf("未知の種別がそのまま残っていません: %q", advice.Outfit[0].Category)
	}
	if !advice.Outfit[1].Category.Valid() {
		t.Errorf("shoes は既知の種別のはずです: %q", advice.Outfit[1].Category)
	}
}
