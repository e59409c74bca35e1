package usecase

import (
	"math"
	"reflect"
	"testing"

	"github.com/shopsmart/backend/internal/domain"
)

func TestScoreFromText(t *testing.T) {
	t.Run("stays within bounds", func(t *testing.T) {
		inputs := []string{"", "a", "hello", "Organic Cotton T-Shirt", "café ☕", "https://www.amazon.com/dp/B08N5WRWNW"}
		bounds := [][2]int{{0, 0}, {0, 100}, {50, 90}, {40, 90}, {-10, 10}}

		for _, input := range inputs {
			for _, b := range bounds {
				got := ScoreFromText(input, b[0], b[1])
				if got < b[0] || got > b[1] {
					t.Errorf("ScoreFromText(%q, %d, %d) = %d, out of range", input, b[0], b[1], got)
				}
			}
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		first := ScoreFromText("Bamboo Toothbrush 4-Pack", 50, 90)
		for i := 0; i < 5; i++ {
			if got := ScoreFromText("Bamboo Toothbrush 4-Pack", 50, 90); got != first {
				t.Fatalf("ScoreFromText changed from %d to %d", first, got)
			}
		}
	})

	t.Run("matches known values", func(t *testing.T) {
		tests := []struct {
			text     string
			min, max int
			want     int
		}{
			{"", 50, 90, 50},
			{"a", 50, 90, 65},
			{"Organic Cotton T-Shirt", 50, 90, 78},
			{"Organic Cotton T-Shirt", 40, 90, 43},
			{"Wireless Earbuds", 50, 90, 70},
			{"Wireless Earbuds", 40, 90, 55},
		}
		for _, tt := range tests {
			if got := ScoreFromText(tt.text, tt.min, tt.max); got != tt.want {
				t.Errorf("ScoreFromText(%q, %d, %d) = %d, want %d", tt.text, tt.min, tt.max, got, tt.want)
			}
		}
	})

	t.Run("swapped bounds", func(t *testing.T) {
		if got := ScoreFromText("a", 90, 50); got != 65 {
			t.Errorf("ScoreFromText with swapped bounds = %d, want 65", got)
		}
	})
}

func TestEcoFromScore_Categories(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{85, domain.EcoExcellent},
		{80, domain.EcoExcellent},
		{79, domain.EcoGood},
		{70, domain.EcoGood},
		{65, domain.EcoGood},
		{64, domain.EcoFair},
		{55, domain.EcoFair},
		{50, domain.EcoFair},
		{49, domain.EcoPoor},
		{30, domain.EcoPoor},
	}

	for _, tt := range tests {
		result := EcoFromScore(tt.score)
		if result.Category != tt.want {
			t.Errorf("EcoFromScore(%d).Category = %s, want %s", tt.score, result.Category, tt.want)
		}
	}
}

func TestEcoFromScore_Narratives(t *testing.T) {
	t.Run("high score", func(t *testing.T) {
		result := EcoFromScore(85)
		if result.Materials != "Contains organic cotton and recycled materials" {
			t.Errorf("Materials = %q", result.Materials)
		}
		if !reflect.DeepEqual(result.Certifications, []string{"GOTS Certified", "Fair Trade", "OEKO-TEX"}) {
			t.Errorf("Certifications = %v", result.Certifications)
		}
		if result.Packaging != "80% recyclable, minimal plastic" {
			t.Errorf("Packaging = %q", result.Packaging)
		}
		if result.Concerns != "Minor packaging improvements possible" {
			t.Errorf("Concerns = %q", result.Concerns)
		}
		if result.Summary != "Sustainability score: 85/100. Strong eco-credentials with verified certifications." {
			t.Errorf("Summary = %q", result.Summary)
		}
	})

	t.Run("score 70 sits below the material threshold", func(t *testing.T) {
		result := EcoFromScore(70)
		if result.Materials != "Synthetic materials with limited sustainability data" {
			t.Errorf("Materials = %q", result.Materials)
		}
		if result.Concerns != "Minor packaging improvements possible" {
			t.Errorf("Concerns = %q", result.Concerns)
		}
		if result.Packaging != "80% recyclable, minimal plastic" {
			t.Errorf("Packaging = %q", result.Packaging)
		}
		if result.Summary != "Sustainability score: 70/100. Moderate sustainability with room for improvement." {
			t.Errorf("Summary = %q", result.Summary)
		}
	})

	t.Run("score 60 uses heavy packaging", func(t *testing.T) {
		result := EcoFromScore(60)
		if result.Packaging != "Excessive packaging with plastic components" {
			t.Errorf("Packaging = %q", result.Packaging)
		}
		if result.Summary != "Sustainability score: 60/100. Limited sustainability information available." {
			t.Errorf("Summary = %q", result.Summary)
		}
	})

	t.Run("tags mock results", func(t *testing.T) {
		result := EcoFromScore(55)
		if result.Type != domain.ModeEco || !result.UsingMockData {
			t.Errorf("Type = %s, UsingMockData = %v", result.Type, result.UsingMockData)
		}
	})
}

func TestTrustFromScore(t *testing.T) {
	tests := []struct {
		score          int
		category       string
		recommendation string
		verdict        string
	}{
		{90, domain.TrustHighlyTrusted, domain.RecommendBuy, "Reviews appear mostly genuine with good verification"},
		{80, domain.TrustHighlyTrusted, domain.RecommendBuy, "Reviews appear mostly genuine with good verification"},
		{75, domain.TrustTrusted, domain.RecommendBuy, "Reviews appear mostly genuine with good verification"},
		{70, domain.TrustTrusted, domain.RecommendBuy, "Mixed signals detected - proceed with caution"},
		{60, domain.TrustTrusted, domain.RecommendCautious, "Mixed signals detected - proceed with caution"},
		{55, domain.TrustQuestionable, domain.RecommendCautious, "Mixed signals detected - proceed with caution"},
		{45, domain.TrustQuestionable, domain.RecommendAvoid, "High risk of fake reviews - consider alternatives"},
		{40, domain.TrustQuestionable, domain.RecommendAvoid, "High risk of fake reviews - consider alternatives"},
		{20, domain.TrustSuspicious, domain.RecommendAvoid, "High risk of fake reviews - consider alternatives"},
	}

	for _, tt := range tests {
		result := TrustFromScore(tt.score)
		if result.Category != tt.category {
			t.Errorf("TrustFromScore(%d).Category = %s, want %s", tt.score, result.Category, tt.category)
		}
		if result.Recommendation != tt.recommendation {
			t.Errorf("TrustFromScore(%d).Recommendation = %s, want %s", tt.score, result.Recommendation, tt.recommendation)
		}
		if result.Verdict != tt.verdict {
			t.Errorf("TrustFromScore(%d).Verdict = %q, want %q", tt.score, result.Verdict, tt.verdict)
		}
		wantFake := int(math.Floor(float64(100-tt.score) * 0.6))
		if result.FakePercentage != wantFake {
			t.Errorf("TrustFromScore(%d).FakePercentage = %d, want %d", tt.score, result.FakePercentage, wantFake)
		}
	}
}

func TestTrustFromScore_FakePercentage(t *testing.T) {
	if got := TrustFromScore(45); got.Category != domain.TrustQuestionable {
		t.Errorf("Category = %s, want questionable", got.Category)
	}
	if got := TrustFromScore(90).FakePercentage; got != 6 {
		t.Errorf("FakePercentage(90) = %d, want 6", got)
	}
	if got := TrustFromScore(45).FakePercentage; got != 33 {
		t.Errorf("FakePercentage(45) = %d, want 33", got)
	}
	if got := TrustFromScore(20).FakePercentage; got != 48 {
		t.Errorf("FakePercentage(20) = %d, want 48", got)
	}
}

func TestTrustFromScore_Flags(t *testing.T) {
	low := TrustFromScore(59)
	if len(low.RedFlags) != 4 || len(low.GenuineIndicators) != 2 {
		t.Errorf("score 59: %d red flags, %d indicators, want 4 and 2", len(low.RedFlags), len(low.GenuineIndicators))
	}

	high := TrustFromScore(60)
	if len(high.RedFlags) != 1 || len(high.GenuineIndicators) != 4 {
		t.Errorf("score 60: %d red flags, %d indicators, want 1 and 4", len(high.RedFlags), len(high.GenuineIndicators))
	}
	if high.Type != domain.ModeTrust || !high.UsingMockData {
		t.Errorf("Type = %s, UsingMockData = %v", high.Type, high.UsingMockData)
	}
}

func TestMockAnalyses_UseTitle(t *testing.T) {
	product := &domain.ProductData{Title: "Organic Cotton T-Shirt", URL: "https://example.com/a"}

	eco := MockEcoAnalysis(product)
	if eco.EcoScore != 78 || eco.Category != domain.EcoGood {
		t.Errorf("eco = %d/%s, want 78/good", eco.EcoScore, eco.Category)
	}

	trust := MockTrustAnalysis(product)
	if trust.TrustScore != 43 || trust.Category != domain.TrustQuestionable {
		t.Errorf("trust = %d/%s, want 43/questionable", trust.TrustScore, trust.Category)
	}

	other := &domain.ProductData{Title: "Organic Cotton T-Shirt", URL: "https://example.com/b"}
	if !reflect.DeepEqual(MockEcoAnalysis(other), eco) {
		t.Error("mock eco analysis should only depend on the title")
	}

	if got := MockAnalysis(domain.ModeTrust, nil); got.Score() != 40 {
		t.Errorf("MockAnalysis(trust, nil).Score() = %d, want 40", got.Score())
	}
}
