package court

import (
	"testing"

	"github.com/abrezinsky/courtboard/internal/match"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"1", "001", true},
		{"08", "008", true},
		{"123", "123", true},
		{"1234", "1234", true},
		{" 7 ", "007", true},
		{"", "", false},
		{"abc", "", false},
		{"1a", "", false},
		{"-1", "", false},
		{"1234567", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeID(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("NormalizeID(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/courts/3/display", "003"},
		{"/courts/012/control", "012"},
		{"/display", DefaultCourtID},
		{"", DefaultCourtID},
		{"/courts/x/display", DefaultCourtID},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := FromPath(tt.path)
			if got.CourtID != tt.want {
				t.Errorf("CourtID = %q, want %q", got.CourtID, tt.want)
			}
			if got.StorageNamespace != "volleyballScoreData_"+tt.want {
				t.Errorf("StorageNamespace = %q", got.StorageNamespace)
			}
			if got.DisplayName != "Court "+tt.want {
				t.Errorf("DisplayName = %q", got.DisplayName)
			}
		})
	}
}

func TestFromID_IsDeterministic(t *testing.T) {
	a := FromID("4")
	b := FromID("004")
	if a != b {
		t.Errorf("FromID(4) = %+v, FromID(004) = %+v", a, b)
	}
	if a.Variant != match.DefaultVariant() {
		t.Errorf("Variant = %+v", a.Variant)
	}
}

func TestRegistry(t *testing.T) {
	exchange := match.Variant{TimeoutSlots: 3, SetTracking: match.SetTrackingPerTeam, SwapPolicy: match.SwapExchange}
	r := NewRegistry([]Entry{
		{ID: "2", Name: "Center Court", Password: "court002"},
		{ID: "8", Password: "court008", Variant: exchange},
		{ID: "bogus", Password: "ignored"},
		{ID: "1", Password: "court001"},
	})

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("All() returned %d courts, want 3", len(all))
	}
	if all[0].CourtID != "001" || all[1].CourtID != "002" || all[2].CourtID != "008" {
		t.Errorf("order = %s %s %s", all[0].CourtID, all[1].CourtID, all[2].CourtID)
	}

	center, ok := r.Lookup("002")
	if !ok || center.DisplayName != "Center Court" {
		t.Errorf("Lookup(002) = %+v, %v", center, ok)
	}

	eight, _ := r.Lookup("8")
	if eight.Variant != exchange {
		t.Errorf("court 8 variant = %+v", eight.Variant)
	}

	if _, ok := r.Lookup("5"); ok {
		t.Error("unconfigured court should not be found")
	}
	if got := r.Resolve("5"); got.CourtID != "005" {
		t.Errorf("Resolve(5) = %+v", got)
	}

	name, pw, ok := r.Credential("1")
	if !ok || pw != "court001" || name != "Court 001" {
		t.Errorf("Credential(1) = %q %q %v", name, pw, ok)
	}

	if !r.SetPassword("001", "spike-block-ace") {
		t.Fatal("SetPassword failed")
	}
	if _, pw, _ := r.Credential("001"); pw != "spike-block-ace" {
		t.Errorf("password = %q", pw)
	}
	if r.SetPassword("077", "x") {
		t.Error("SetPassword should fail for unknown court")
	}
}
