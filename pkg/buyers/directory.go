package buyers

// BuyerProfile is a trade buyer on the network desk. The directory is fixed
// at compile time and read-only after process start; ranking relies on its
// insertion order for tie-breaks.
type BuyerProfile struct {
	Name      string   `json:"name"`
	Specialty []string `json:"specialty"`
	Location  string   `json:"location"`
	Phone     string   `json:"phone"`
	Email     string   `json:"email"`
}

// LocationRecord is one dealership in the network directory.
type LocationRecord struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

// Directory of the eight network vehicle buyers.
var Buyers = []BuyerProfile{
	{Name: "John Smith", Specialty: []string{"BMW", "saloon", "executive"}, Location: "Birmingham - High St", Phone: "01234 567890", Email: "john.smith@sytner.co.uk"},
	{Name: "Priya Patel", Specialty: []string{"BMW", "suv", "premium"}, Location: "Manchester - Oxford Rd", Phone: "01618 220411", Email: "priya.patel@sytner.co.uk"},
	{Name: "Marcus Webb", Specialty: []string{"coupe", "premium", "performance"}, Location: "London - Park Lane", Phone: "02071 930255", Email: "marcus.webb@sytner.co.uk"},
	{Name: "Sophie Turner", Specialty: []string{"hatchback", "compact", "MINI"}, Location: "Bristol - Temple Way", Phone: "01179 304466", Email: "sophie.turner@sytner.co.uk"},
	{Name: "Daniel O'Brien", Specialty: []string{"electric", "saloon", "BMW"}, Location: "Solihull - Stratford Rd", Phone: "01217 056633", Email: "daniel.obrien@sytner.co.uk"},
	{Name: "Hannah Clarke", Specialty: []string{"suv", "executive"}, Location: "Coventry - Ring Road", Phone: "02476 998812", Email: "hannah.clarke@sytner.co.uk"},
	{Name: "Tom Rogers", Specialty: []string{"convertible", "coupe"}, Location: "Leeds - Wellington St", Phone: "01132 447788", Email: "tom.rogers@sytner.co.uk"},
	{Name: "Aisha Khan", Specialty: []string{"compact", "electric", "MINI"}, Location: "Nottingham - Castle Blvd", Phone: "01159 336755", Email: "aisha.khan@sytner.co.uk"},
}

// Network dealership directory (22 sites).
var Locations = []LocationRecord{
	{Name: "Sytner BMW Birmingham - High St", Region: "West Midlands"},
	{Name: "Sytner BMW Manchester - Oxford Rd", Region: "North West"},
	{Name: "Sytner BMW London - Park Lane", Region: "Greater London"},
	{Name: "Sytner BMW Bristol - Temple Way", Region: "South West"},
	{Name: "Sytner BMW Solihull - Stratford Rd", Region: "West Midlands"},
	{Name: "Sytner BMW Coventry - Ring Road", Region: "West Midlands"},
	{Name: "Sytner BMW Leeds - Wellington St", Region: "Yorkshire"},
	{Name: "Sytner BMW Nottingham - Castle Blvd", Region: "East Midlands"},
	{Name: "Sytner BMW Sheffield - Penistone Rd", Region: "Yorkshire"},
	{Name: "Sytner BMW Newcastle - Scotswood Rd", Region: "North East"},
	{Name: "Sytner BMW Liverpool - Sefton St", Region: "North West"},
	{Name: "Sytner BMW Leicester - Meridian Way", Region: "East Midlands"},
	{Name: "Sytner BMW Oxford - Botley Rd", Region: "South East"},
	{Name: "Sytner BMW Cambridge - Newmarket Rd", Region: "East of England"},
	{Name: "Sytner BMW Reading - Rose Kiln Ln", Region: "South East"},
	{Name: "Sytner BMW Cardiff - Hadfield Rd", Region: "Wales"},
	{Name: "Sytner BMW Swansea - Fabian Way", Region: "Wales"},
	{Name: "Sytner BMW Edinburgh - Seafield Rd", Region: "Scotland"},
	{Name: "Sytner BMW Glasgow - Kyle St", Region: "Scotland"},
	{Name: "Sytner BMW Southampton - Mountbatten Way", Region: "South East"},
	{Name: "Sytner BMW Norwich - Cromer Rd", Region: "East of England"},
	{Name: "Sytner BMW Exeter - Marsh Barton", Region: "South West"},
}

// LocationByName looks a dealership up by its exact directory name.
func LocationByName(name string) (LocationRecord, bool) {
	for _, l := range Locations {
		if l.Name == name {
			return l, true
		}
	}
	return LocationRecord{}, false
}
