// Package keypoint decodes garment keypoint heatmaps.
package keypoint

import (
	"fmt"
	"sort"
	"strings"
)

var tables = map[string][]string{
	"blouse": {"neckline_left", "neckline_right", "center_front", "shoulder_left", "shoulder_right",
		"armpit_left", "armpit_right", "cuff_left_in", "cuff_left_out", "cuff_right_in",
		"cuff_right_out", "top_hem_left", "top_hem_right"},
	"outwear": {"neckline_left", "neckline_right", "shoulder_left", "shoulder_right", "armpit_left",
		"armpit_right", "waistline_left", "waistline_right", "cuff_left_in", "cuff_left_out",
		"cuff_right_in", "cuff_right_out", "top_hem_left", "top_hem_right"},
	"trousers": {"waistband_left", "waistband_right", "crotch", "bottom_left_in", "bottom_left_out",
		"bottom_right_in", "bottom_right_out"},
	"skirt": {"waistband_left", "waistband_right", "hemline_left", "hemline_right"},
	"dress": {"neckline_left", "neckline_right", "center_front", "shoulder_left", "shoulder_right",
		"armpit_left", "armpit_right", "waistline_left", "waistline_right", "cuff_left_in",
		"cuff_left_out", "cuff_right_in", "cuff_right_out", "hemline_left", "hemline_right"},
}

// Names returns the keypoint names of a clothing type.
func Names(clothingType string) ([]string, error) {
	names, ok := tables[clothingType]
	if !ok {
		return nil, fmt.Errorf("unknown clothing type %q, expected one of %v", clothingType, ClothingTypes())
	}
	return names, nil
}

// ClothingTypes lists the known clothing types in alphabetical order.
func ClothingTypes() []string {
	types := make([]string, 0, len(tables))
	for t := range tables {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Conjugates pairs every left keypoint with its right counterpart.
func Conjugates(names []string) [][2]int {
	var pairs [][2]int
	for i, key := range names {
		if !strings.Contains(key, "left") {
			continue
		}
		other := strings.ReplaceAll(key, "left", "right")
		for j, name := range names {
			if name == other {
				pairs = append(pairs, [2]int{i, j})
				break
			}
		}
	}
	return pairs
}

type Keypoint struct {
	Name    string `json:"name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Visible int    `json:"visible"`
}
