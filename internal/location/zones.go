package location

// Table is a static Source backed by a map
type Table map[string]Entry

// Lookup implements Source
func (t Table) Lookup(zone string) (Entry, bool) {
	e, ok := t[zone]
	return e, ok
}

// DefaultTable returns the built-in timezone table
func DefaultTable() Table {
	return zoneTable
}

func entry(name string, lat, lon float64) Entry {
	return Entry{Name: name, Location: Location{Latitude: lat, Longitude: lon}}
}

// regionFallbacks are used when a zone is missing from the table
var regionFallbacks = map[string]Entry{
	"Europe":     entry("Europe", 50.0, 10.0),
	"America":    entry("Americas", 38.0, -90.0),
	"US":         entry("United States", 39.0, -95.0),
	"Canada":     entry("Canada", 50.0, -95.0),
	"Asia":       entry("Asia", 30.0, 100.0),
	"Africa":     entry("Africa", 5.0, 20.0),
	"Australia":  entry("Australia", -30.0, 140.0),
	"Pacific":    entry("Pacific Islands", -15.0, 175.0),
	"Atlantic":   entry("Atlantic Region", 35.0, -30.0),
	"Indian":     entry("Indian Ocean Region", -10.0, 70.0),
	"Antarctica": entry("Antarctica", -75.0, 0.0),
}

var zoneTable = Table{
	// Europe
	"Europe/Paris":       entry("Paris, France", 48.85, 2.35),
	"Europe/Brussels":    entry("Brussels, Belgium", 50.85, 4.35),
	"Europe/London":      entry("London, United Kingdom", 51.51, -0.13),
	"Europe/Berlin":      entry("Berlin, Germany", 52.52, 13.40),
	"Europe/Madrid":      entry("Madrid, Spain", 40.42, -3.70),
	"Europe/Rome":        entry("Rome, Italy", 41.90, 12.50),
	"Europe/Amsterdam":   entry("Amsterdam, Netherlands", 52.37, 4.90),
	"Europe/Lisbon":      entry("Lisbon, Portugal", 38.72, -9.14),
	"Europe/Vienna":      entry("Vienna, Austria", 48.21, 16.37),
	"Europe/Zurich":      entry("Zurich, Switzerland", 47.38, 8.54),
	"Europe/Warsaw":      entry("Warsaw, Poland", 52.23, 21.01),
	"Europe/Prague":      entry("Prague, Czech Republic", 50.08, 14.44),
	"Europe/Stockholm":   entry("Stockholm, Sweden", 59.33, 18.07),
	"Europe/Oslo":        entry("Oslo, Norway", 59.91, 10.75),
	"Europe/Copenhagen":  entry("Copenhagen, Denmark", 55.68, 12.57),
	"Europe/Helsinki":    entry("Helsinki, Finland", 60.17, 24.94),
	"Europe/Moscow":      entry("Moscow, Russia", 55.76, 37.62),
	"Europe/Kiev":        entry("Kyiv, Ukraine", 50.45, 30.52),
	"Europe/Kyiv":        entry("Kyiv, Ukraine", 50.45, 30.52),
	"Europe/Bucharest":   entry("Bucharest, Romania", 44.43, 26.10),
	"Europe/Budapest":    entry("Budapest, Hungary", 47.50, 19.04),
	"Europe/Athens":      entry("Athens, Greece", 37.98, 23.73),
	"Europe/Dublin":      entry("Dublin, Ireland", 53.35, -6.26),
	"Europe/Sofia":       entry("Sofia, Bulgaria", 42.70, 23.32),
	"Europe/Belgrade":    entry("Belgrade, Serbia", 44.79, 20.45),
	"Europe/Zagreb":      entry("Zagreb, Croatia", 45.81, 15.98),
	"Europe/Sarajevo":    entry("Sarajevo, Bosnia and Herzegovina", 43.86, 18.41),
	"Europe/Skopje":      entry("Skopje, North Macedonia", 42.00, 21.43),
	"Europe/Tirane":      entry("Tirana, Albania", 41.33, 19.82),
	"Europe/Minsk":       entry("Minsk, Belarus", 53.90, 27.57),
	"Europe/Riga":        entry("Riga, Latvia", 56.95, 24.11),
	"Europe/Vilnius":     entry("Vilnius, Lithuania", 54.69, 25.28),
	"Europe/Tallinn":     entry("Tallinn, Estonia", 59.44, 24.75),
	"Europe/Chisinau":    entry("Chisinau, Moldova", 47.01, 28.86),
	"Europe/Bratislava":  entry("Bratislava, Slovakia", 48.15, 17.11),
	"Europe/Ljubljana":   entry("Ljubljana, Slovenia", 46.06, 14.51),
	"Europe/Luxembourg":  entry("Luxembourg City, Luxembourg", 49.61, 6.13),
	"Europe/Malta":       entry("Valletta, Malta", 35.90, 14.51),
	"Europe/Monaco":      entry("Monaco", 43.74, 7.42),
	"Europe/San_Marino":  entry("San Marino", 43.94, 12.46),
	"Europe/Vatican":     entry("Vatican City", 41.90, 12.45),
	"Europe/Andorra":     entry("Andorra la Vella, Andorra", 42.51, 1.52),
	"Europe/Istanbul":    entry("Istanbul, Turkey", 41.01, 28.98),
	"Europe/Nicosia":     entry("Nicosia, Cyprus", 35.19, 33.38),
	"Europe/Gibraltar":   entry("Gibraltar", 36.14, -5.35),
	"Europe/Samara":      entry("Samara, Russia", 53.20, 50.15),
	"Atlantic/Azores":    entry("Ponta Delgada, Azores", 37.74, -25.67),
	"Atlantic/Madeira":   entry("Funchal, Madeira", 32.65, -16.91),
	"Atlantic/Canary":    entry("Las Palmas, Canary Islands", 28.12, -15.43),
	"Atlantic/Reykjavik": entry("Reykjavik, Iceland", 64.15, -21.94),

	// North America
	"America/New_York":       entry("New York City, USA", 40.71, -74.01),
	"US/Eastern":             entry("New York City, USA", 40.71, -74.01),
	"America/Chicago":        entry("Chicago, USA", 41.88, -87.63),
	"US/Central":             entry("Chicago, USA", 41.88, -87.63),
	"America/Denver":         entry("Denver, USA", 39.74, -104.99),
	"US/Mountain":            entry("Denver, USA", 39.74, -104.99),
	"America/Los_Angeles":    entry("Los Angeles, USA", 34.05, -118.24),
	"US/Pacific":             entry("Los Angeles, USA", 34.05, -118.24),
	"America/Phoenix":        entry("Phoenix, USA", 33.45, -112.07),
	"America/Anchorage":      entry("Anchorage, USA", 61.22, -149.90),
	"America/Detroit":        entry("Detroit, USA", 42.33, -83.05),
	"America/Toronto":        entry("Toronto, Canada", 43.65, -79.38),
	"America/Vancouver":      entry("Vancouver, Canada", 49.28, -123.12),
	"America/Montreal":       entry("Montreal, Canada", 45.50, -73.57),
	"America/Winnipeg":       entry("Winnipeg, Canada", 49.90, -97.14),
	"America/Edmonton":       entry("Edmonton, Canada", 53.55, -113.49),
	"America/Halifax":        entry("Halifax, Canada", 44.65, -63.57),
	"America/St_Johns":       entry("St. John's, Canada", 47.56, -52.71),
	"America/Mexico_City":    entry("Mexico City, Mexico", 19.43, -99.13),
	"America/Cancun":         entry("Cancun, Mexico", 21.16, -86.85),
	"America/Havana":         entry("Havana, Cuba", 23.11, -82.37),
	"America/Panama":         entry("Panama City, Panama", 8.98, -79.52),
	"America/Jamaica":        entry("Kingston, Jamaica", 17.97, -76.79),
	"America/Nassau":         entry("Nassau, Bahamas", 25.05, -77.35),
	"America/Puerto_Rico":    entry("San Juan, Puerto Rico", 18.47, -66.11),
	"America/Santo_Domingo":  entry("Santo Domingo, Dominican Republic", 18.49, -69.93),
	"America/Port-au-Prince": entry("Port-au-Prince, Haiti", 18.59, -72.31),
	"America/Managua":        entry("Managua, Nicaragua", 12.11, -86.24),
	"Pacific/Honolulu":       entry("Honolulu, Hawaii, USA", 21.31, -157.86),

	// South America
	"America/Bogota":                 entry("Bogota, Colombia", 4.71, -74.07),
	"America/Lima":                   entry("Lima, Peru", -12.05, -77.04),
	"America/Caracas":                entry("Caracas, Venezuela", 10.48, -66.90),
	"America/Santiago":               entry("Santiago, Chile", -33.45, -70.67),
	"America/Argentina/Buenos_Aires": entry("Buenos Aires, Argentina", -34.60, -58.38),
	"America/Buenos_Aires":           entry("Buenos Aires, Argentina", -34.60, -58.38),
	"America/Sao_Paulo":              entry("Sao Paulo, Brazil", -23.55, -46.63),
	"America/Fortaleza":              entry("Fortaleza, Brazil", -3.73, -38.53),
	"America/Asuncion":               entry("Asuncion, Paraguay", -25.26, -57.58),
	"America/Montevideo":             entry("Montevideo, Uruguay", -34.90, -56.16),
	"America/La_Paz":                 entry("La Paz, Bolivia", -16.49, -68.12),
	"America/Guayaquil":              entry("Guayaquil, Ecuador", -2.17, -79.92),
	"America/Guyana":                 entry("Georgetown, Guyana", 6.80, -58.16),
	"America/Paramaribo":             entry("Paramaribo, Suriname", 5.85, -55.20),
	"America/Cayenne":                entry("Cayenne, French Guiana", 4.92, -52.31),

	// Asia
	"Asia/Tokyo":         entry("Tokyo, Japan", 35.68, 139.69),
	"Asia/Shanghai":      entry("Shanghai, China", 31.23, 121.47),
	"Asia/Hong_Kong":     entry("Hong Kong", 22.32, 114.17),
	"Asia/Macau":         entry("Macau", 22.20, 113.54),
	"Asia/Taipei":        entry("Taipei, Taiwan", 25.03, 121.57),
	"Asia/Seoul":         entry("Seoul, South Korea", 37.57, 126.98),
	"Asia/Pyongyang":     entry("Pyongyang, North Korea", 39.04, 125.76),
	"Asia/Ulaanbaatar":   entry("Ulaanbaatar, Mongolia", 47.89, 106.91),
	"Asia/Singapore":     entry("Singapore", 1.35, 103.82),
	"Asia/Kuala_Lumpur":  entry("Kuala Lumpur, Malaysia", 3.14, 101.69),
	"Asia/Jakarta":       entry("Jakarta, Indonesia", -6.21, 106.85),
	"Asia/Bangkok":       entry("Bangkok, Thailand", 13.76, 100.50),
	"Asia/Manila":        entry("Manila, Philippines", 14.60, 120.98),
	"Asia/Ho_Chi_Minh":   entry("Ho Chi Minh City, Vietnam", 10.82, 106.63),
	"Asia/Phnom_Penh":    entry("Phnom Penh, Cambodia", 11.56, 104.93),
	"Asia/Vientiane":     entry("Vientiane, Laos", 17.98, 102.63),
	"Asia/Yangon":        entry("Yangon, Myanmar", 16.87, 96.20),
	"Asia/Dhaka":         entry("Dhaka, Bangladesh", 23.81, 90.41),
	"Asia/Kolkata":       entry("Kolkata, India", 22.57, 88.36),
	"Asia/Calcutta":      entry("Kolkata, India", 22.57, 88.36),
	"Asia/Karachi":       entry("Karachi, Pakistan", 24.86, 67.01),
	"Asia/Kabul":         entry("Kabul, Afghanistan", 34.56, 69.21),
	"Asia/Tehran":        entry("Tehran, Iran", 35.69, 51.39),
	"Asia/Baghdad":       entry("Baghdad, Iraq", 33.31, 44.36),
	"Asia/Riyadh":        entry("Riyadh, Saudi Arabia", 24.71, 46.68),
	"Asia/Dubai":         entry("Dubai, UAE", 25.20, 55.27),
	"Asia/Muscat":        entry("Muscat, Oman", 23.59, 58.41),
	"Asia/Qatar":         entry("Doha, Qatar", 25.29, 51.53),
	"Asia/Kuwait":        entry("Kuwait City, Kuwait", 29.38, 47.99),
	"Asia/Bahrain":       entry("Manama, Bahrain", 26.23, 50.59),
	"Asia/Amman":         entry("Amman, Jordan", 31.95, 35.93),
	"Asia/Beirut":        entry("Beirut, Lebanon", 33.89, 35.50),
	"Asia/Damascus":      entry("Damascus, Syria", 33.51, 36.29),
	"Asia/Jerusalem":     entry("Jerusalem, Israel", 31.77, 35.21),
	"Asia/Gaza":          entry("Gaza, Palestine", 31.50, 34.47),
	"Asia/Hebron":        entry("Hebron, Palestine", 31.53, 35.10),
	"Asia/Yerevan":       entry("Yerevan, Armenia", 40.18, 44.51),
	"Asia/Baku":          entry("Baku, Azerbaijan", 40.41, 49.87),
	"Asia/Tbilisi":       entry("Tbilisi, Georgia", 41.72, 44.78),
	"Asia/Ashgabat":      entry("Ashgabat, Turkmenistan", 37.96, 58.33),
	"Asia/Tashkent":      entry("Tashkent, Uzbekistan", 41.30, 69.24),
	"Asia/Dushanbe":      entry("Dushanbe, Tajikistan", 38.56, 68.79),
	"Asia/Bishkek":       entry("Bishkek, Kyrgyzstan", 42.87, 74.59),
	"Asia/Almaty":        entry("Almaty, Kazakhstan", 43.24, 76.89),
	"Asia/Colombo":       entry("Colombo, Sri Lanka", 6.93, 79.86),
	"Asia/Kathmandu":     entry("Kathmandu, Nepal", 27.72, 85.32),
	"Asia/Thimphu":       entry("Thimphu, Bhutan", 27.47, 89.64),
	"Asia/Yekaterinburg": entry("Yekaterinburg, Russia", 56.84, 60.61),
	"Asia/Novosibirsk":   entry("Novosibirsk, Russia", 55.01, 82.93),
	"Asia/Krasnoyarsk":   entry("Krasnoyarsk, Russia", 56.01, 92.89),
	"Asia/Irkutsk":       entry("Irkutsk, Russia", 52.29, 104.28),
	"Asia/Yakutsk":       entry("Yakutsk, Russia", 62.04, 129.68),
	"Asia/Vladivostok":   entry("Vladivostok, Russia", 43.12, 131.89),
	"Indian/Maldives":    entry("Male, Maldives", 4.18, 73.51),
	"Indian/Mauritius":   entry("Port Louis, Mauritius", -20.16, 57.50),
	"Indian/Mahe":        entry("Victoria, Seychelles", -4.62, 55.45),

	// Africa
	"Africa/Cairo":         entry("Cairo, Egypt", 30.04, 31.24),
	"Africa/Johannesburg":  entry("Johannesburg, South Africa", -26.20, 28.05),
	"Africa/Lagos":         entry("Lagos, Nigeria", 6.52, 3.38),
	"Africa/Kinshasa":      entry("Kinshasa, DR Congo", -4.44, 15.27),
	"Africa/Nairobi":       entry("Nairobi, Kenya", -1.29, 36.82),
	"Africa/Addis_Ababa":   entry("Addis Ababa, Ethiopia", 9.03, 38.74),
	"Africa/Dar_es_Salaam": entry("Dar es Salaam, Tanzania", -6.79, 39.21),
	"Africa/Khartoum":      entry("Khartoum, Sudan", 15.50, 32.56),
	"Africa/Algiers":       entry("Algiers, Algeria", 36.75, 3.06),
	"Africa/Casablanca":    entry("Casablanca, Morocco", 33.57, -7.59),
	"Africa/Tunis":         entry("Tunis, Tunisia", 36.81, 10.18),
	"Africa/Tripoli":       entry("Tripoli, Libya", 32.89, 13.19),
	"Africa/Accra":         entry("Accra, Ghana", 5.60, -0.19),
	"Africa/Dakar":         entry("Dakar, Senegal", 14.72, -17.47),
	"Africa/Abidjan":       entry("Abidjan, Ivory Coast", 5.36, -4.01),
	"Africa/Bamako":        entry("Bamako, Mali", 12.64, -8.00),
	"Africa/Luanda":        entry("Luanda, Angola", -8.84, 13.23),
	"Africa/Lusaka":        entry("Lusaka, Zambia", -15.39, 28.32),
	"Africa/Harare":        entry("Harare, Zimbabwe", -17.83, 31.05),
	"Africa/Maputo":        entry("Maputo, Mozambique", -25.97, 32.57),
	"Africa/Windhoek":      entry("Windhoek, Namibia", -22.56, 17.08),
	"Africa/Kampala":       entry("Kampala, Uganda", 0.35, 32.58),
	"Africa/Kigali":        entry("Kigali, Rwanda", -1.94, 30.06),
	"Africa/Douala":        entry("Douala, Cameroon", 4.05, 9.77),
	"Africa/Mogadishu":     entry("Mogadishu, Somalia", 2.05, 45.32),

	// Australia / Oceania
	"Australia/Sydney":     entry("Sydney, Australia", -33.87, 151.21),
	"Australia/Melbourne":  entry("Melbourne, Australia", -37.81, 144.96),
	"Australia/Brisbane":   entry("Brisbane, Australia", -27.47, 153.03),
	"Australia/Perth":      entry("Perth, Australia", -31.95, 115.86),
	"Australia/Adelaide":   entry("Adelaide, Australia", -34.93, 138.60),
	"Australia/Hobart":     entry("Hobart, Australia", -42.88, 147.33),
	"Australia/Darwin":     entry("Darwin, Australia", -12.46, 130.84),
	"Australia/Canberra":   entry("Canberra, Australia", -35.28, 149.13),
	"Pacific/Auckland":     entry("Auckland, New Zealand", -36.85, 174.76),
	"Pacific/Fiji":         entry("Suva, Fiji", -18.14, 178.44),
	"Pacific/Port_Moresby": entry("Port Moresby, Papua New Guinea", -9.44, 147.18),
	"Pacific/Guadalcanal":  entry("Honiara, Solomon Islands", -9.43, 159.95),
	"Pacific/Noumea":       entry("Noumea, New Caledonia", -22.28, 166.46),
	"Pacific/Tahiti":       entry("Papeete, French Polynesia", -17.54, -149.57),
	"Pacific/Apia":         entry("Apia, Samoa", -13.83, -171.76),
	"Pacific/Tongatapu":    entry("Nuku'alofa, Tonga", -21.14, -175.20),
	"Pacific/Guam":         entry("Hagatna, Guam", 13.48, 144.75),
	"Pacific/Easter":       entry("Easter Island, Chile", -27.11, -109.35),
}
