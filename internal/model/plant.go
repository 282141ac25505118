package model

type Category string

const (
	CategoryGas     Category = "gas"
	CategoryCoal    Category = "coal"
	CategoryNuclear Category = "nuclear"
	CategorySolar   Category = "solar"
	CategoryWind    Category = "wind"
)

// CategoryInfo holds display name and color for a plant category.
type CategoryInfo struct {
	Name  string
	Color string
}

// CategoryCatalog maps every known Category to its display name and color.
var CategoryCatalog = map[Category]CategoryInfo{
	CategoryGas:     {Name: "Gas", Color: "#c85050"},
	CategoryCoal:    {Name: "Coal", Color: "#646464"},
	CategoryNuclear: {Name: "Nuclear", Color: "#64c864"},
	CategorySolar:   {Name: "Solar", Color: "#ffc832"},
	CategoryWind:    {Name: "Wind", Color: "#64b4ff"},
}

// Role says who sets a plant's target each turn.
type Role string

const (
	RoleControllable Role = "controllable" // the controller's action
	RoleRenewable    Role = "renewable"    // the realized weather
)

// Variable names a stochastic quantity produced by the weather engine.
type Variable string

const (
	VariableDemand Variable = "demand"
	VariableSolar  Variable = "solar"
	VariableWind   Variable = "wind"
)

// Variables lists the weather variables in draw order. The order is part of
// the reproducibility contract: a seed always yields the same draws.
var Variables = []Variable{VariableDemand, VariableSolar, VariableWind}

// PlantSpec holds the static parameters of one generation unit.
type PlantSpec struct {
	Key            string   `mapstructure:"key" json:"key"`
	Name           string   `mapstructure:"name" json:"name"`
	Category       Category `mapstructure:"category" json:"category"`
	Role           Role     `mapstructure:"role" json:"role"`
	MaxOutput      float64  `mapstructure:"max_output" json:"max_output_mw"`
	MinOutput      float64  `mapstructure:"min_output" json:"min_output_mw"`
	CostPerMW      float64  `mapstructure:"cost_per_mw" json:"cost_per_mw"`
	EmissionsPerMW float64  `mapstructure:"emissions_per_mw" json:"emissions_per_mw"`
	RampRate       float64  `mapstructure:"ramp_rate" json:"ramp_rate_mw"`
	// Source is the weather variable driving a renewable plant.
	Source Variable `mapstructure:"source" json:"source,omitempty"`
}

// ConsumerSpec describes an aggregate load.
type ConsumerSpec struct {
	Key      string  `mapstructure:"key" json:"key"`
	Name     string  `mapstructure:"name" json:"name"`
	BaseLoad float64 `mapstructure:"base_load" json:"base_load_mw"`
}

// WeatherSpec is the base daily profile and volatility of one variable.
// Profile values are fractions of the reference capacity, one per hour.
type WeatherSpec struct {
	Variable   Variable  `mapstructure:"variable" json:"variable"`
	Volatility float64   `mapstructure:"volatility" json:"volatility"`
	Profile    []float64 `mapstructure:"profile" json:"profile"`
}
