// Package resources defines the four resource kinds traded in the game and
// the arithmetic shared by every economy calculation.
package resources

import (
	"fmt"
	"math"
)

type Kind string

const (
	Iron       Kind = "iron"
	RareMetals Kind = "rare_metals"
	Crystals   Kind = "crystals"
	Fuel       Kind = "fuel"
)

// Kinds lists resources in reporting order; shortfalls are reported in this order.
var Kinds = []Kind{Iron, RareMetals, Crystals, Fuel}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown resource %q", s)
}

type Resources struct {
	Iron       int64 `json:"iron" yaml:"iron"`
	RareMetals int64 `json:"rare_metals" yaml:"rare_metals"`
	Crystals   int64 `json:"crystals" yaml:"crystals"`
	Fuel       int64 `json:"fuel" yaml:"fuel"`
}

func (r Resources) Get(k Kind) int64 {
	switch k {
	case Iron:
		return r.Iron
	case RareMetals:
		return r.RareMetals
	case Crystals:
		return r.Crystals
	case Fuel:
		return r.Fuel
	}
	return 0
}

func (r *Resources) Set(k Kind, v int64) {
	switch k {
	case Iron:
		r.Iron = v
	case RareMetals:
		r.RareMetals = v
	case Crystals:
		r.Crystals = v
	case Fuel:
		r.Fuel = v
	}
}

func (r Resources) Add(o Resources) Resources {
	return Resources{
		Iron:       r.Iron + o.Iron,
		RareMetals: r.RareMetals + o.RareMetals,
		Crystals:   r.Crystals + o.Crystals,
		Fuel:       r.Fuel + o.Fuel,
	}
}

func (r Resources) Negate() Resources {
	return Resources{Iron: -r.Iron, RareMetals: -r.RareMetals, Crystals: -r.Crystals, Fuel: -r.Fuel}
}

// Scale multiplies every component by f, flooring each independently
func (r Resources) Scale(f float64) Resources {
	var out Resources
	for _, k := range Kinds {
		out.Set(k, int64(math.Floor(float64(r.Get(k))*f)))
	}
	return out
}

func (r Resources) Total() int64 {
	return r.Iron + r.RareMetals + r.Crystals + r.Fuel
}

func (r Resources) IsZero() bool {
	return r == Resources{}
}

// Shortfall returns the first kind for which balance cannot cover cost
func Shortfall(balance, cost Resources) (Kind, bool) {
	for _, k := range Kinds {
		if balance.Get(k) < cost.Get(k) {
			return k, true
		}
	}
	return "", false
}

// Modifiers are per-resource multipliers of a celestial body.
type Modifiers struct {
	Iron       float64 `json:"iron" yaml:"iron"`
	RareMetals float64 `json:"rare_metals" yaml:"rare_metals"`
	Crystals   float64 `json:"crystals" yaml:"crystals"`
	Fuel       float64 `json:"fuel" yaml:"fuel"`
}

func DefaultModifiers() Modifiers {
	return Modifiers{Iron: 1, RareMetals: 1, Crystals: 1, Fuel: 1}
}

func (m Modifiers) Get(k Kind) float64 {
	switch k {
	case Iron:
		return m.Iron
	case RareMetals:
		return m.RareMetals
	case Crystals:
		return m.Crystals
	case Fuel:
		return m.Fuel
	}
	return 0
}

func (m *Modifiers) Set(k Kind, v float64) {
	switch k {
	case Iron:
		m.Iron = v
	case RareMetals:
		m.RareMetals = v
	case Crystals:
		m.Crystals = v
	case Fuel:
		m.Fuel = v
	}
}

func (m Modifiers) Sum() float64 {
	return m.Iron + m.RareMetals + m.Crystals + m.Fuel
}

// Multipliers is a partial per-resource multiplier; absent kinds read as 1.0.
type Multipliers map[Kind]float64

func (m Multipliers) Get(k Kind) float64 {
	if v, ok := m[k]; ok {
		return v
	}
	return 1
}
