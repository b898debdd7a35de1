package domain

// WAHealth is the HealthyWA government exposure table. The advisory
// columns are frequently reworded by the department without a new
// exposure event, so they are tracked as mutable rather than keyed.
var WAHealth = &Schema{
	Name:  "wahealth",
	Table: "wahealth_exposures",
	Title: "WA Health Exposure Sites",
	Fields: []Field{
		{Name: "datentime", Label: "Date and Time"},
		{Name: "suburb", Label: "Suburb"},
		{Name: "location", Label: "Location"},
		{Name: "updated", Label: "Updated"},
		{Name: "advice", Label: "Advice"},
	},
	KeyFields:     []string{"datentime", "suburb", "location"},
	MutableFields: []string{"updated", "advice"},
}

// Sheet is the crowd-sourced spreadsheet of unofficial exposure reports.
var Sheet = &Schema{
	Name:  "sheet",
	Table: "sheet_exposures",
	Title: "Unofficial Civilian Compiled Exposure Sites",
	Fields: []Field{
		{Name: "datentime", Label: "Date and Time"},
		{Name: "suburb", Label: "Suburb"},
		{Name: "location", Label: "Location"},
	},
	KeyFields: []string{"datentime", "suburb", "location"},
}

// ECU is the Edith Cowan University notice page.
var ECU = &Schema{
	Name:  "ecu",
	Table: "ecu_exposures",
	Title: "Edith Cowan University Exposure Sites",
	Fields: []Field{
		{Name: "date", Label: "Date"},
		{Name: "time", Label: "Time"},
		{Name: "campus", Label: "Campus"},
		{Name: "building", Label: "Building"},
		{Name: "room", Label: "Room"},
	},
	KeyFields: []string{"date", "time", "campus", "building", "room"},
}

// UWA is the University of Western Australia notice page.
var UWA = &Schema{
	Name:  "uwa",
	Table: "uwa_exposures",
	Title: "University of Western Australia Exposure Sites",
	Fields: []Field{
		{Name: "date", Label: "Date"},
		{Name: "time", Label: "Time"},
		{Name: "location", Label: "Location"},
	},
	KeyFields: []string{"date", "time", "location"},
}

// Murdoch is the Murdoch University notice page.
var Murdoch = &Schema{
	Name:  "murdoch",
	Table: "murdoch_exposures",
	Title: "Murdoch University Exposure Sites",
	Fields: []Field{
		{Name: "date", Label: "Date"},
		{Name: "time", Label: "Time"},
		{Name: "campus", Label: "Campus"},
		{Name: "location", Label: "Location"},
	},
	KeyFields: []string{"date", "time", "campus", "location"},
}

// Curtin is the Curtin University notice page.
var Curtin = &Schema{
	Name:  "curtin",
	Table: "curtin_exposures",
	Title: "Curtin University Exposure Sites",
	Fields: []Field{
		{Name: "date", Label: "Date"},
		{Name: "time", Label: "Time"},
		{Name: "campus", Label: "Campus"},
		{Name: "location", Label: "Location"},
		{Name: "contact_type", Label: "Contact Type"},
	},
	KeyFields: []string{"date", "time", "campus", "location", "contact_type"},
}

// Schemas lists every known source schema in report order.
func Schemas() []*Schema {
	return []*Schema{WAHealth, Sheet, ECU, UWA, Murdoch, Curtin}
}

// SchemaByName looks up a schema by its source name.
func SchemaByName(name string) *Schema {
	for _, s := range Schemas() {
		if s.Name == name {
			return s
		}
	}
	return nil
}
