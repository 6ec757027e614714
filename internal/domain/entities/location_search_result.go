package entities

// LocationSearchResult is a location enriched with derived search fields.
// Rating, RatingCount and Distance are computed per query and never persisted.
type LocationSearchResult struct {
	Location
	Organization       *Organization     `json:"organization,omitempty"`
	Rating             *float64          `json:"rating"`
	RatingCount        int               `json:"ratingCount"`
	Distance           *float64          `json:"distance"`
	Hours              []HourRule        `json:"hours"`
	DeliveryHours      []HourRule        `json:"deliveryHours"`
	Holidays           []HolidayOverride `json:"holidays,omitempty"`
	HoursToday         HoursToday        `json:"hoursToday"`
	DeliveryHoursToday HoursToday        `json:"deliveryHoursToday"`
}

// LocationRow is the base row returned by the filtered, ranked query before
// hours enrichment.
type LocationRow struct {
	Location
	OrganizationAllowOffHours bool
	Rating                    *float64
	RatingCount               int
	Distance                  *float64
}
