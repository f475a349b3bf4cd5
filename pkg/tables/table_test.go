package tables

import (
	"reflect"
	"strings"
	"testing"

	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/theme"
	"pgregory.net/rapid"
)

func TestWorstMeasureRow(t *testing.T) {
	got := WorstMeasureRow(model.MeasureRecord{
		MeasureName:        "Readmission-30d",
		HospitalsReporting: model.NumberOf(1234),
		AverageScore:       model.NumberOf(12.345),
	})
	want := []string{"Readmission-30d", "1,234", "12.35"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("row = %v, want %v", got, want)
	}
}

func TestTopHospitalRowInvalidScore(t *testing.T) {
	got := TopHospitalRow(model.HospitalRankRecord{
		FacilityName: "General", City: "Austin", State: "TX", Score: model.ParseNumber([]byte(`"N/A"`)),
	})
	if got[3] != model.Placeholder {
		t.Errorf("score = %q, want %q", got[3], model.Placeholder)
	}
}

func TestStateDetailRow(t *testing.T) {
	got := StateDetailRow(model.StateSummaryRecord{
		Region:        "CA",
		Hospitals:     model.NumberOf(350),
		PatientVolume: model.ParseNumber([]byte(`"1500000"`)),
		MaxScore:      model.NumberOf(22.5),
		AverageScore:  model.NumberOf(15.2),
	})
	want := []string{"CA", "350", "1,500,000", model.Placeholder, "22.50", "15.20"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("row = %v, want %v", got, want)
	}
}

func TestRenderRowsReplaces(t *testing.T) {
	tbl := NewWorstMeasures()
	RenderRows(tbl, []model.MeasureRecord{{MeasureName: "a"}, {MeasureName: "b"}}, WorstMeasureRow)
	RenderRows(tbl, []model.MeasureRecord{{MeasureName: "c"}}, WorstMeasureRow)
	if tbl.Len() != 1 || tbl.Rows()[0][0] != "c" {
		t.Fatalf("rows = %v", tbl.Rows())
	}
	RenderRows(tbl, nil, WorstMeasureRow)
	if tbl.Len() != 0 {
		t.Errorf("empty render left %d rows", tbl.Len())
	}
}

func TestRowsIsACopy(t *testing.T) {
	tbl := New("x", "A")
	RenderRows(tbl, []string{"one"}, func(s string) []string { return []string{s} })
	rows := tbl.Rows()
	rows[0][0] = "changed"
	if tbl.Rows()[0][0] != "one" {
		t.Error("Rows must not expose internal state")
	}
}

func TestViewEmptyAndTruncated(t *testing.T) {
	p := theme.PaletteFor(theme.Light)
	tbl := NewTopHospitals()
	if out := tbl.View(80, 0, p); !strings.Contains(out, NoRows) || !strings.Contains(out, "Hospital") {
		t.Errorf("empty view = %q", out)
	}
	RenderRows(tbl, []model.HospitalRankRecord{{
		FacilityName: strings.Repeat("Very Long Hospital Name ", 5),
		City:         "Sacramento", State: "CA", Score: model.NumberOf(9.1),
	}}, TopHospitalRow)
	out := tbl.View(60, 0, p)
	if !strings.Contains(out, "…") {
		t.Error("long cell should be truncated")
	}
	if !strings.Contains(out, "9.10") {
		t.Error("score missing")
	}
}

func TestRenderRowsKeepsOrderAndCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOf(rapid.StringMatching(`[A-Za-z ]{0,12}`)).Draw(t, "names")
		recs := make([]model.MeasureRecord, len(names))
		for i, n := range names {
			recs[i] = model.MeasureRecord{MeasureName: n}
		}
		tbl := NewWorstMeasures()
		RenderRows(tbl, recs, WorstMeasureRow)
		if tbl.Len() != len(recs) {
			t.Fatalf("len = %d, want %d", tbl.Len(), len(recs))
		}
		for i, row := range tbl.Rows() {
			if row[0] != names[i] {
				t.Fatalf("row %d = %q, want %q", i, row[0], names[i])
			}
		}
	})
}

func TestScrollAndWindow(t *testing.T) {
	tbl := NewWorstMeasures()
	var recs []model.MeasureRecord
	for _, n := range []string{"m0", "m1", "m2", "m3", "m4"} {
		recs = append(recs, model.MeasureRecord{MeasureName: n})
	}
	RenderRows(tbl, recs, WorstMeasureRow)

	tbl.Scroll(2)
	out := tbl.View(80, 2, theme.PaletteFor(theme.Dark))
	if !strings.Contains(out, "m2") || !strings.Contains(out, "m3") {
		t.Errorf("window missing rows: %q", out)
	}
	if strings.Contains(out, "m1") || strings.Contains(out, "m4") {
		t.Errorf("window shows rows outside range: %q", out)
	}

	tbl.Scroll(100)
	if tbl.Offset() != 4 {
		t.Errorf("offset = %d, want 4", tbl.Offset())
	}
	tbl.Scroll(-100)
	if tbl.Offset() != 0 {
		t.Errorf("offset = %d, want 0", tbl.Offset())
	}

	RenderRows(tbl, recs, WorstMeasureRow)
	tbl.Scroll(3)
	RenderRows(tbl, recs[:1], WorstMeasureRow)
	if tbl.Offset() != 0 {
		t.Error("new rows must reset the scroll offset")
	}
}
