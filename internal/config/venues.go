package config

var defaultVenues = []Venue{
	{ID: "twenties-barcelona", Name: "Twenties"},
	{ID: "bling-bling-bcn", Name: "Bling Bling"},
	{ID: "pacha-barcelona", Name: "Pacha"},
	{ID: "sutton-barcelona", Name: "Sutton"},
	{ID: "la-biblio-bcn", Name: "La Biblio"},
	{ID: "duvet", Name: "Duvet"},
	{ID: "el-cuatro", Name: "El Cuatro"},
	{ID: "opium-barcelona", Name: "Opium"},
	{ID: "sala-b1", Name: "Sala B"},
	{ID: "sala-bikini", Name: "Sala Bikini"},
	{ID: "el-rodeo-club1", Name: "El Rodeo Club"},
	{ID: "opulent-society", Name: "Opulent Society"},
	{ID: "yass-barcelona", Name: "Yass"},
	{ID: "colors", Name: "Colors"},
	{ID: "new-york-disco", Name: "New York Disco"},
	{ID: "draco-disco", Name: "Draco Disco"},
	{ID: "sugar-barcelona", Name: "Sugar"},
	{ID: "otto-zutz", Name: "Otto Zutz"},
	{ID: "exclusive-nights", Name: "Exclusive Nights"},
	{ID: "luz-de-gas", Name: "Luz De Gas"},
	{ID: "costa-breve3", Name: "Costa Breve"},
	{ID: "discoteca-illusion-barcelona", Name: "Discoteca Illusion"},
	{ID: "downtown-barcelona", Name: "Downtown"},
	{ID: "wolf-barcelona", Name: "Wolf"},
	{ID: "carpe-diem-barcelona", Name: "Carpe Diem"},
}
