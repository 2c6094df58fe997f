package model

// IntersectingZone is a zone confirmed to overlap a query polygon
type IntersectingZone struct {
	City         string `json:"city"`
	JoinKey      string `json:"join_key"`
	District     string `json:"district"`
	Neighborhood string `json:"neighborhood"`
	DistrictCode int    `json:"district_code"`
	SectionCode  int    `json:"section_code"`
	Population   int    `json:"population"`
}

// Statistics is the per-dataset summary of an estimation request.
// TotalPopulation and IntersectingZones come from independently sampled runs.
type Statistics struct {
	TotalPopulation   float64            `json:"total_population"`
	IntersectingZones []IntersectingZone `json:"intersecting_zones"`
	NumZones          int                `json:"num_zones"`
}
