package config

// defaultClubs are Resident Advisor club ids and the names shown in results.
var defaultClubs = []Venue{
	{ID: "911", Name: "Razzmatazz"},
	{ID: "150612", Name: "M7 CLUB"},
	{ID: "195409", Name: "Les Enfants"},
	{ID: "3818", Name: "Macarena Club"},
	{ID: "3760", Name: "La Terrazza"},
	{ID: "60710", Name: "Input"},
	{ID: "2072", Name: "Nitsa"},
	{ID: "2253", Name: "Moog"},
	{ID: "216950", Name: "Noxe"},
}
