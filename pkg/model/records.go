// Package model defines the records returned by the readmission statistics
// API and the scope value (Region) every query is filtered by.
package model

// MetricRecord holds the KPI tiles for one refresh cycle.
type MetricRecord struct {
	TotalHospitals Number `json:"total_hospitals"`
	AverageScore   Number `json:"average_readmission_score"`
}

// Category is a comparison-to-national-average bucket.
type Category string

const (
	CategoryBetter  Category = "Better than National Average"
	CategoryAverage Category = "Average"
	CategoryWorse   Category = "Worse than National Average"
	// CategoryTooSmall is what CMS reports when a facility has too few cases
	// to compare. Anything else is treated as unknown.
	CategoryTooSmall Category = "Number of Cases Too Small"
)

// Known reports whether c is one of the comparison buckets.
func (c Category) Known() bool {
	switch c {
	case CategoryBetter, CategoryAverage, CategoryWorse:
		return true
	}
	return false
}

// PerformanceCategoryRecord is one slice of the performance donut.
type PerformanceCategoryRecord struct {
	Category   Category `json:"performance_category"`
	Measures   Number   `json:"number_of_measures"`
	Percentage Number   `json:"percentage"`
}

// VolumeTierRecord is one bar of the volume chart.
type VolumeTierRecord struct {
	Tier         string `json:"tier"`
	AverageScore Number `json:"average_score"`
}

// HospitalRankRecord is a row of the top-hospitals table.
type HospitalRankRecord struct {
	FacilityName string `json:"facility_name"`
	City         string `json:"city_town"`
	State        string `json:"state"`
	Score        Number `json:"score"`
}

// MeasureRecord is a row of the worst-measures table.
type MeasureRecord struct {
	MeasureName        string `json:"measure_name"`
	HospitalsReporting Number `json:"number_of_hospitals_reporting"`
	AverageScore       Number `json:"average_score"`
}

// StateSummaryRecord aggregates one region. The map only needs Region and
// AverageScore; the region-detail table uses every field.
type StateSummaryRecord struct {
	Region        Region `json:"state"`
	Hospitals     Number `json:"number_of_hospitals"`
	PatientVolume Number `json:"total_patient_volume"`
	MinScore      Number `json:"min_score"`
	MaxScore      Number `json:"max_score"`
	AverageScore  Number `json:"average_score"`
}
