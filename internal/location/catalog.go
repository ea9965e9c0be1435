package location

// BuildingType is an operator-facing building category used to narrow a
// search to specific kinds of venues.
type BuildingType string

// Supported building types.
const (
	BuildingChurches        BuildingType = "churches"
	BuildingFactories       BuildingType = "factories"
	BuildingHotels          BuildingType = "hotels"
	BuildingRehabCenters    BuildingType = "rehabilitation_centers"
	BuildingGyms            BuildingType = "gyms"
	BuildingHospitals       BuildingType = "hospitals"
	BuildingTowingCompanies BuildingType = "towing_companies"
	BuildingLaundromats     BuildingType = "laundromats"
	BuildingOffices         BuildingType = "office_buildings"
	BuildingIndustrial      BuildingType = "industrial_facilities"
	BuildingDaycares        BuildingType = "daycares"
	BuildingYMCAs           BuildingType = "ymcas"
	BuildingRestaurants     BuildingType = "restaurants"
	BuildingFastFood        BuildingType = "fast_food"
	BuildingBarbershops     BuildingType = "barbershops"
	BuildingGasStations     BuildingType = "gas_stations"
	BuildingCoffeeShops     BuildingType = "coffee_shops"
)

// buildingTypeTags maps each building type to the OSM tag queried for it.
var buildingTypeTags = map[BuildingType]string{
	BuildingChurches:        "amenity=place_of_worship",
	BuildingFactories:       "building=industrial",
	BuildingHotels:          "tourism=hotel",
	BuildingRehabCenters:    "healthcare=rehabilitation",
	BuildingGyms:            "leisure=fitness_centre",
	BuildingHospitals:       "amenity=hospital",
	BuildingTowingCompanies: "shop=car_repair",
	BuildingLaundromats:     "shop=laundry",
	BuildingOffices:         "building=office",
	BuildingIndustrial:      "building=industrial",
	BuildingDaycares:        "amenity=childcare",
	BuildingYMCAs:           "leisure=fitness_centre",
	BuildingRestaurants:     "amenity=restaurant",
	BuildingFastFood:        "amenity=fast_food",
	BuildingBarbershops:     "shop=hairdresser",
	BuildingGasStations:     "amenity=fuel",
	BuildingCoffeeShops:     "amenity=cafe",
}

// KnownBuildingType reports whether s is in the building type catalog.
func KnownBuildingType(s string) bool {
	_, ok := buildingTypeTags[BuildingType(s)]
	return ok
}

// BuildingTypeTag returns the OSM tag queried for a building type, or ""
// when the building type is unknown.
func BuildingTypeTag(b BuildingType) string {
	return buildingTypeTags[b]
}

// machineTypeTags maps each machine type to the OSM venue tags most likely to
// host that kind of machine.
var machineTypeTags = map[MachineType][]string{
	MachineSnack: {
		"amenity=restaurant", "amenity=fast_food", "amenity=cafe",
		"shop=convenience", "amenity=fuel", "building=office",
		"amenity=hospital", "amenity=school", "leisure=fitness_centre",
	},
	MachineDrink: {
		"amenity=restaurant", "amenity=fast_food", "amenity=cafe",
		"shop=convenience", "amenity=fuel", "building=office",
		"amenity=hospital", "amenity=school", "leisure=fitness_centre",
	},
	MachineClaw: {
		"amenity=restaurant", "amenity=fast_food", "amenity=cafe",
		"shop=hairdresser", "amenity=fuel", "shop=convenience",
		"amenity=ice_cream", "amenity=bar",
	},
	MachineHotFood: {
		"amenity=restaurant", "amenity=fast_food", "building=office",
		"amenity=hospital", "amenity=school", "building=industrial",
	},
	MachineIceCream: {
		"amenity=restaurant", "amenity=fast_food", "amenity=cafe",
		"shop=convenience", "tourism=attraction", "leisure=park",
	},
	MachineCoffee: {
		"building=office", "amenity=hospital", "amenity=school",
		"building=industrial", "amenity=university", "amenity=library",
	},
	MachineCombo: {
		"amenity=restaurant", "amenity=fast_food", "amenity=cafe",
		"shop=convenience", "amenity=fuel", "building=office",
		"amenity=hospital", "amenity=school", "leisure=fitness_centre",
	},
	MachineHealthySnack: {
		"leisure=fitness_centre", "amenity=hospital", "amenity=school",
		"amenity=university", "building=office",
	},
	MachineFreshFood: {
		"building=office", "amenity=hospital", "building=industrial",
		"amenity=university", "amenity=school",
	},
	MachineToy: {
		"amenity=restaurant", "amenity=fast_food", "shop=supermarket",
		"amenity=ice_cream", "tourism=attraction",
	},
}

// OSMTags returns the venue tags queried for a machine type, narrowed by the
// building type filter when it intersects the machine's candidate tags. A
// filter that intersects nothing leaves the full tag set in place so a bad
// filter degrades to a broad search instead of an empty one.
func OSMTags(machine MachineType, buildingTypes []BuildingType) []string {
	tags := machineTypeTags[machine]
	if len(buildingTypes) == 0 {
		return tags
	}

	allowed := make(map[string]bool, len(buildingTypes))
	for _, b := range buildingTypes {
		if tag := buildingTypeTags[b]; tag != "" {
			allowed[tag] = true
		}
	}

	var filtered []string
	for _, tag := range tags {
		if allowed[tag] {
			filtered = append(filtered, tag)
		}
	}
	if len(filtered) == 0 {
		return tags
	}
	return filtered
}
