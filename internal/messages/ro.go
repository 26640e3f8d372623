package messages

// Romanian returns all Romanian text strings.
func Romanian() Messages {
	return Messages{
		StrategyCurrent: "Locatia curenta",
		StrategyPin:     "Alege pe harta",
		StrategyTown:    "Oras",

		ChooseStrategy:  "Alege cum cauti statiile",
		TownPlaceholder: "Numele orasului",
		PinPrompt:       "Apasa pe harta pentru a pune pinul",
		RadiusLabel:     "Raza (km)",
		ProductLabel:    "Carburant",
		Searching:       "Se cauta statiile...",

		NoStrategy:          "Alege o optiune de localizare.",
		EmptyTown:           "Introdu numele orasului.",
		NoPin:               "Pune pinul pe harta.",
		InvalidInput:        "Date invalide",
		PermissionDenied:    "Permisiunea de localizare a fost refuzata.",
		TownNotFound:        "Orasul nu a fost gasit.",
		AddressNotFound:     "Adresa nu a fost gasita.",
		LocationUnavailable: "Locatia nu este disponibila.",
		ServiceUnavailable:  "Serviciul de preturi nu raspunde. Incearca din nou.",
		Canceled:            "Cautarea a fost anulata.",
		UnknownError:        "A aparut o eroare necunoscuta.",

		StationsFound:   "statii gasite",
		NoStationsFound: "Nicio statie in zona.",
		Center:          "Centru",
		KmAway:          "km",
		NotAvailable:    "N/A",
		SearchHistory:   "Cautari recente",
		PopularAreas:    "Zone populare",
	}
}
