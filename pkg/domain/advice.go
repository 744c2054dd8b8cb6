package domain

import (
	"fmt"
	"strings"
)

// DegreeSign は気温表記に付与する単位記号です。
const DegreeSign = "°"

// WeatherRecommendation は AI が返す天気情報です。生成後は読み取り専用として扱います。
type WeatherRecommendation struct {
	City             string `json:"city"`
	Temperature      string `json:"temp"`
	TemperatureRange string `json:"tempRange"`
	Condition        string `json:"condition"`
	Humidity         string `json:"humidity,omitempty"`
}

// NormalizeTemperature は気温に単位記号が含まれていない場合に付与します。
func (w *WeatherRecommendation) NormalizeTemperature() {
	if w.Temperature != "" && !strings.Contains(w.Temperature, DegreeSign) {
		w.Temperature += DegreeSign
	}
}

// Category はコーディネートのアイテム種別です。
type Category string

const (
	CategoryTop       Category = "top"
	CategoryBottom    Category = "bottom"
	CategoryShoes     Category = "shoes"
	CategoryAccessory Category = "accessory"
)

// Valid は既知の種別かどうかを返します。
func (c Category) Valid() bool {
	switch c {
	case CategoryTop, CategoryBottom, CategoryShoes, CategoryAccessory:
		return true
	}
	return false
}

// OutfitItem はコーディネートを構成する1アイテムです。
type OutfitItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Color    string   `json:"color"`
	Category Category `json:"type"`
}

// Describe は画像プロンプト用に "{color} {name}" 形式の説明を返します。
func (i OutfitItem) Describe() string {
	return strings.TrimSpace(i.Color + " " + i.Name)
}

// Outfit はアイテムの順序付きリストです。AI には4点を要求しますが、過不足は許容します。
type Outfit []OutfitItem

// Describe は全アイテムの説明をカンマ区切りで連結します。
func (o Outfit) Describe() string {
	parts := make([]string, len(o))
	for i, item := range o {
		parts[i] = item.Describe()
	}
	return strings.Join(parts, ", ")
}

// AdviceResult はテキスト生成ステージの成果物で、画像生成ステージへの入力になります。
type AdviceResult struct {
	Weather WeatherRecommendation `json:"weather"`
	Outfit  Outfit                `json:"outfit"`
}

// Validate は AdviceResult が期待する形を満たしているかを検証します。
func (a *AdviceResult) Validate() error {
	if a == nil {
		return fmt.Errorf("advice が nil です")
	}
	w := a.Weather
	var missing []string
	if strings.TrimSpace(w.City) == "" {
		missing = append(missing, "weather.city")
	}
	if strings.TrimSpace(w.Temperature) == "" {
		missing = append(missing, "weather.temp")
	}
	if strings.TrimSpace(w.TemperatureRange) == "" {
		missing = append(missing, "weather.tempRange")
	}
	if strings.TrimSpace(w.Condition) == "" {
		missing = append(missing, "weather.condition")
	}
	for i, item := range a.Outfit {
		if strings.TrimSpace(item.Name) == "" {
			missing = append(missing, fmt.Sprintf("outfit[%d].name", i))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("必須フィールドが不足しています: %s", strings.Join(missing, ", "))
	}
	return nil
}
