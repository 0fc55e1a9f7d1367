package domain

// Concern is a tag-like description of a plugin topic.
type Concern string

// The static concern taxonomy plugins classify themselves under.
const (
	ConcernGreenhouseGasEmission Concern = "greenhouse-gas-emission"
	ConcernHeatStress            Concern = "heat-stress"
	ConcernAirQuality            Concern = "air-quality"
	ConcernMobilityTransition    Concern = "mobility-transition"
	ConcernGreenSpaces           Concern = "green-spaces"
	ConcernWaterManagement       Concern = "water-management"
	ConcernEnergyTransition      Concern = "energy-transition"
	ConcernLandUse               Concern = "land-use"
)

// Concerns returns the full taxonomy in a stable order.
func Concerns() []Concern {
	return []Concern{
		ConcernGreenhouseGasEmission,
		ConcernHeatStress,
		ConcernAirQuality,
		ConcernMobilityTransition,
		ConcernGreenSpaces,
		ConcernWaterManagement,
		ConcernEnergyTransition,
		ConcernLandUse,
	}
}
