package tables

import "github.com/vanderheijden86/readmit/pkg/model"

// Column headers for each table.
var (
	TopHospitalHeaders  = []string{"Hospital", "City", "State", "Score"}
	WorstMeasureHeaders = []string{"Measure", "Hospitals", "Avg Score"}
	StateDetailHeaders  = []string{"State", "Hospitals", "Patient Volume", "Min", "Max", "Avg"}
)

// TopHospitalRow projects a ranked hospital.
func TopHospitalRow(r model.HospitalRankRecord) []string {
	return []string{r.FacilityName, r.City, r.State, r.Score.Fixed2()}
}

// WorstMeasureRow projects a measure aggregate.
func WorstMeasureRow(r model.MeasureRecord) []string {
	return []string{r.MeasureName, r.HospitalsReporting.Grouped(), r.AverageScore.Fixed2()}
}

// StateDetailRow projects a per-state summary.
func StateDetailRow(r model.StateSummaryRecord) []string {
	return []string{
		string(r.Region),
		r.Hospitals.Grouped(),
		r.PatientVolume.Grouped(),
		r.MinScore.Fixed2(),
		r.MaxScore.Fixed2(),
		r.AverageScore.Fixed2(),
	}
}

// NewTopHospitals returns the empty top-hospitals panel.
func NewTopHospitals() *Table { return New(TopHospitalsID, TopHospitalHeaders...) }

// NewWorstMeasures returns the empty worst-measures panel.
func NewWorstMeasures() *Table { return New(WorstMeasuresID, WorstMeasureHeaders...) }

// NewStatePerformance returns the empty state-details panel.
func NewStatePerformance() *Table { return New(StatePerformanceID, StateDetailHeaders...) }
