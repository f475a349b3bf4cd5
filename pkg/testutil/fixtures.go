// Package testutil provides a fake readmission API and assertions shared by
// the package tests.
package testutil

// Endpoint paths of the readmission statistics API.
const (
	PathKPIs          = "/api/kpis"
	PathPerformance   = "/api/national-performance"
	PathVolume        = "/api/performance-by-volume"
	PathTopHospitals  = "/api/top-hospitals"
	PathWorstMeasures = "/api/worst-measures"
	PathStateScores   = "/api/performance-by-state"
	PathStateDetails  = "/api/state-details"
)

// Fixtures maps endpoint path -> region ("" for national) -> JSON body.
type Fixtures map[string]map[string]string

// Lookup returns the body for path and region. Regions without a fixture
// get an empty collection (or an empty KPI object), like the real service.
func (f Fixtures) Lookup(path, region string) (string, bool) {
	byRegion, ok := f[path]
	if !ok {
		return "", false
	}
	if body, ok := byRegion[region]; ok {
		return body, true
	}
	if path == PathKPIs {
		return `{"total_hospitals":0,"average_readmission_score":"N/A"}`, true
	}
	return `[]`, true
}

// DefaultFixtures covers the national scope plus CA and TX. The CA values
// match the documented dashboard scenarios.
func DefaultFixtures() Fixtures {
	return Fixtures{
		PathKPIs: {
			"":   `{"total_hospitals":4512,"average_readmission_score":"16.08"}`,
			"CA": `{"total_hospitals":350,"average_readmission_score":15.2}`,
			"TX": `{"total_hospitals":401,"average_readmission_score":"16.4"}`,
		},
		PathPerformance: {
			"": `[
				{"performance_category":"Average","number_of_measures":52000,"percentage":"80.1"},
				{"performance_category":"Better than National Average","number_of_measures":6100,"percentage":"9.4"},
				{"performance_category":"Worse than National Average","number_of_measures":6800,"percentage":"10.5"}
			]`,
			"CA": `[
				{"performance_category":"Average","number_of_measures":4100,"percentage":"6.3"},
				{"performance_category":"Better than National Average","number_of_measures":700,"percentage":"1.1"},
				{"performance_category":"Number of Cases Too Small","number_of_measures":90,"percentage":"0.1"}
			]`,
			"TX": `[
				{"performance_category":"Average","number_of_measures":3900,"percentage":"6.0"}
			]`,
		},
		PathVolume: {
			"": `[
				{"tier":"Large","average_score":"15.10"},
				{"tier":"Medium","average_score":"15.90"},
				{"tier":"Small","average_score":"17.20"},
				{"tier":"Very Large","average_score":"14.80"}
			]`,
			"CA": `[
				{"tier":"Medium","average_score":"15.40"},
				{"tier":"Small","average_score":"16.70"}
			]`,
			"TX": `[
				{"tier":"Small","average_score":"17.90"}
			]`,
		},
		PathTopHospitals: {
			"": `[
				{"facility_name":"MERCY GENERAL","city_town":"SPRINGFIELD","state":"MO","score":"27.1"},
				{"facility_name":"ST ANNE","city_town":"DOVER","state":"DE","score":"26.4"}
			]`,
			"CA": `[
				{"facility_name":"VALLEY MEDICAL","city_town":"FRESNO","state":"CA","score":"25.3"},
				{"facility_name":"BAY HOSPITAL","city_town":"OAKLAND","state":"CA","score":24}
			]`,
			"TX": `[
				{"facility_name":"LONE STAR REGIONAL","city_town":"AUSTIN","state":"TX","score":"26.0"}
			]`,
		},
		PathWorstMeasures: {
			"": `[
				{"measure_name":"Heart failure 30-day","number_of_hospitals_reporting":40210,"average_score":"21.90"},
				{"measure_name":"COPD 30-day","number_of_hospitals_reporting":38002,"average_score":"19.40"}
			]`,
			"CA": `[
				{"measure_name":"Readmission-30d","number_of_hospitals_reporting":1234,"average_score":12.345}
			]`,
			"TX": `[
				{"measure_name":"Pneumonia 30-day","number_of_hospitals_reporting":980,"average_score":"18.10"}
			]`,
		},
		PathStateScores: {
			"": `[
				{"state":"CA","average_state_score":"15.20"},
				{"state":"TX","average_state_score":"16.40"},
				{"state":"NY","average_state_score":"17.90"},
				{"state":"GU","average_state_score":"14.00"}
			]`,
		},
		PathStateDetails: {
			"": `[
				{"state":"NY","number_of_hospitals":160,"total_patient_volume":"912345","min_score":"9.1","max_score":"27.0","average_score":"17.90"},
				{"state":"TX","number_of_hospitals":401,"total_patient_volume":"1203400","min_score":"8.2","max_score":"26.0","average_score":"16.40"},
				{"state":"CA","number_of_hospitals":350,"total_patient_volume":"1500000","min_score":null,"max_score":"25.3","average_score":"15.20"}
			]`,
		},
	}
}
