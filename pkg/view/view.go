// Package view holds the constant presentation lookups shared by the
// terminal and HTTP frontends.
package view

import (
	"fmt"

	"github.com/Sternrassler/dex-browser/pkg/catalog"
)

// MaxStat is the largest base stat value a record can carry.
const MaxStat = 255

// UnknownColor is returned for types without an entry in the color table.
const UnknownColor = "#ffffff"

var typeColors = map[string]string{
	"fire":     "#c27e10",
	"grass":    "#4CAF50",
	"water":    "#00BFFF",
	"bug":      "#98e880",
	"normal":   "#A9A9A9",
	"poison":   "#9e5cda",
	"electric": "#ffd365",
	"ground":   "#9e7e52",
	"ghost":    "#5626de",
	"fighting": "#ba082a",
	"psychic":  "#e39fa4",
	"rock":     "#897975",
	"ice":      "#42bed3",
	"steel":    "#999999",
	"dark":     "#12124f",
	"flying":   "#23f1c7",
	"fairy":    "#f040f3",
	"dragon":   "#3263cc",
}

// StatOrder is the display order of the six base stats.
var StatOrder = []string{"hp", "attack", "defense", "special-attack", "special-defense", "speed"}

// TypeClass returns the style class for a type name, or "" when the type is
// unknown.
func TypeClass(typeName string) string {
	if _, ok := typeColors[typeName]; ok {
		return typeName
	}
	return ""
}

// TypeColor returns the hex color for a type name.
func TypeColor(typeName string) string {
	if c, ok := typeColors[typeName]; ok {
		return c
	}
	return UnknownColor
}

// Gradient returns the two-stop background of a record card. A record with
// a single type uses its color for both stops.
func Gradient(types []catalog.Type) string {
	first, second := UnknownColor, UnknownColor
	if len(types) > 0 {
		first = TypeColor(types[0].Name)
		second = first
	}
	if len(types) > 1 {
		second = TypeColor(types[1].Name)
	}
	return fmt.Sprintf("linear-gradient(90deg, %s 40%%, %s 60%%)", first, second)
}

// StatValue returns the base value of the named stat, or 0 when absent.
func StatValue(stats []catalog.Stat, name string) int {
	for _, s := range stats {
		if s.Name == name {
			return s.BaseValue
		}
	}
	return 0
}

// StatPercentage scales a base stat to 0..100 of MaxStat.
func StatPercentage(value int) float64 {
	return float64(value) / MaxStat * 100
}
