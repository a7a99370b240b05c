package catalog

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c := Default()
	if len(c.Stations) < 3 {
		t.Fatalf("expected at least 3 stations, got %d", len(c.Stations))
	}
	if _, ok := c.FoodItem("f2"); !ok {
		t.Fatal("expected f2 in menu")
	}
	if _, ok := c.FoodItem("nope"); ok {
		t.Fatal("unexpected item")
	}
}

func TestTrainFor(t *testing.T) {
	c := Default()
	tests := []struct {
		input string
		want  string
	}{
		{"22436", "22436"},
		{"train 12626 please", "12626"},
		{"8421039482", "12951"},
		{"99999", "12951"},
		{"", "12951"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := c.TrainFor(tc.input).Number; got != tc.want {
				t.Errorf("TrainFor(%q) = %s, want %s", tc.input, got, tc.want)
			}
		})
	}
}

func TestSeedUpdatesRelativeToNow(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ups := Default().SeedUpdates(now)
	if len(ups) != 3 {
		t.Fatalf("expected 3 seeded updates, got %d", len(ups))
	}
	if want := now.Add(-15 * time.Minute); !ups[0].Timestamp.Equal(want) {
		t.Fatalf("expected %v, got %v", want, ups[0].Timestamp)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	bad := []string{
		"trains: []\ndefault_train: \"12951\"\n",
		strings.Replace(string(defaultCatalog), "price: 180", "price: 0", 1),
		strings.Replace(string(defaultCatalog), "default_train: \"12951\"", "default_train: \"11111\"", 1),
		strings.Replace(string(defaultCatalog), "code: KOTA", "code: NDLS", 1),
	}
	for i, doc := range bad {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}
