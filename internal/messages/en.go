package messages

// English returns all English text strings.
func English() Messages {
	return Messages{
		StrategyCurrent: "Current location",
		StrategyPin:     "Pick on map",
		StrategyTown:    "Town",

		ChooseStrategy:  "Choose how to find stations",
		TownPlaceholder: "Town name",
		PinPrompt:       "Tap the map to drop the pin",
		RadiusLabel:     "Radius (km)",
		ProductLabel:    "Fuel",
		Searching:       "Searching stations...",

		NoStrategy:          "Choose a location option.",
		EmptyTown:           "Enter a town name.",
		NoPin:               "Drop the pin on the map.",
		InvalidInput:        "Invalid input",
		PermissionDenied:    "Location permission denied.",
		TownNotFound:        "Town not found.",
		AddressNotFound:     "Address not found.",
		LocationUnavailable: "Location information is unavailable.",
		ServiceUnavailable:  "The price service is not responding. Try again.",
		Canceled:            "The search was canceled.",
		UnknownError:        "An unknown error occurred.",

		StationsFound:   "stations found",
		NoStationsFound: "No stations in this area.",
		Center:          "Center",
		KmAway:          "km away",
		NotAvailable:    "N/A",
		SearchHistory:   "Recent searches",
		PopularAreas:    "Popular areas",
	}
}
