package config

import (
	"sort"

	"github.com/san-kum/particlelife/internal/universe"
)

// Preset is a named scenario: a friction setting plus the parameters the
// universe is randomized from. Key is its single-key shortcut in the
// interactive front ends.
type Preset struct {
	Name     string
	Key      rune
	Friction float64
	Params   universe.Params
}

func params(mean, stddev, minR0, minR1, maxR0, maxR1 float64) universe.Params {
	return universe.Params{
		AttractionMean:   mean,
		AttractionStddev: stddev,
		MinRadius0:       minR0,
		MinRadius1:       minR1,
		MaxRadius0:       maxR0,
		MaxRadius1:       maxR1,
	}
}

var Presets = map[string]*Preset{
	"balanced":        {Name: "balanced", Key: 'B', Friction: 0.05, Params: params(-0.02, 0.06, 0, 20, 20, 70)},
	"chaos":           {Name: "chaos", Key: 'C', Friction: 0.01, Params: params(0.02, 0.04, 0, 30, 30, 100)},
	"diversity":       {Name: "diversity", Key: 'D', Friction: 0.05, Params: params(-0.01, 0.04, 0, 20, 10, 60)},
	"frictionless":    {Name: "frictionless", Key: 'F', Friction: 0, Params: params(0.01, 0.005, 10, 10, 10, 60)},
	"gliders":         {Name: "gliders", Key: 'G', Friction: 0.1, Params: params(0, 0.06, 0.01, 20, 10, 50)},
	"homogeneity":     {Name: "homogeneity", Key: 'O', Friction: 0.05, Params: params(0, 0.04, 10, 10, 10, 80)},
	"large_clusters":  {Name: "large_clusters", Key: 'L', Friction: 0.2, Params: params(0.025, 0.02, 0, 30, 30, 100)},
	"medium_clusters": {Name: "medium_clusters", Key: 'M', Friction: 0.05, Params: params(0.02, 0.05, 0, 20, 20, 50)},
	"quiescence":      {Name: "quiescence", Key: 'Q', Friction: 0.2, Params: params(-0.02, 0.1, 10, 20, 20, 60)},
	"small_clusters":  {Name: "small_clusters", Key: 'S', Friction: 0.01, Params: params(-0.005, 0.01, 10, 10, 20, 50)},
}

func GetPreset(name string) *Preset {
	return Presets[name]
}

// PresetForKey finds the preset bound to an upper-case shortcut key.
func PresetForKey(key rune) *Preset {
	for _, p := range Presets {
		if p.Key == key {
			return p
		}
	}
	return nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
