package usecase

import (
	"fmt"
	"math"

	"github.com/shopsmart/backend/internal/domain"
)

// Score ranges for the deterministic fallback
const (
	mockEcoMin   = 50
	mockEcoMax   = 90
	mockTrustMin = 40
	mockTrustMax = 90
)

// ScoreFromText maps text to a stable score in [min, max].
// Bounds are swapped when given in the wrong order.
func ScoreFromText(text string, min, max int) int {
	if min > max {
		min, max = max, min
	}
	span := int64(max-min) + 1
	return min + int(abs32(hashString(text))%span)
}

// MockEcoAnalysis builds the deterministic eco result for a product
func MockEcoAnalysis(product *domain.ProductData) *domain.EcoAnalysis {
	return EcoFromScore(ScoreFromText(titleOf(product), mockEcoMin, mockEcoMax))
}

// MockTrustAnalysis builds the deterministic trust result for a product
func MockTrustAnalysis(product *domain.ProductData) *domain.TrustAnalysis {
	return TrustFromScore(ScoreFromText(titleOf(product), mockTrustMin, mockTrustMax))
}

// MockAnalysis returns the fallback for mode
func MockAnalysis(mode domain.Mode, product *domain.ProductData) domain.AnalysisResult {
	if mode == domain.ModeTrust {
		return MockTrustAnalysis(product)
	}
	return MockEcoAnalysis(product)
}

// EcoFromScore derives every eco field from score
func EcoFromScore(score int) *domain.EcoAnalysis {
	result := &domain.EcoAnalysis{
		Type:          domain.ModeEco,
		EcoScore:      score,
		Category:      ecoCategory(score),
		UsingMockData: true,
	}

	if score > 70 {
		result.Materials = "Contains organic cotton and recycled materials"
		result.Certifications = []string{"GOTS Certified", "Fair Trade", "OEKO-TEX"}
	} else {
		result.Materials = "Synthetic materials with limited sustainability data"
		result.Certifications = []string{"No verified certifications found"}
	}

	if score > 60 {
		result.Packaging = "80% recyclable, minimal plastic"
	} else {
		result.Packaging = "Excessive packaging with plastic components"
	}

	if score < 70 {
		result.Concerns = "Synthetic materials, limited brand transparency"
	} else {
		result.Concerns = "Minor packaging improvements possible"
	}

	var outlook string
	switch {
	case score > 75:
		outlook = "Strong eco-credentials with verified certifications."
	case score > 60:
		outlook = "Moderate sustainability with room for improvement."
	default:
		outlook = "Limited sustainability information available."
	}
	result.Summary = fmt.Sprintf("Sustainability score: %d/100. %s", score, outlook)

	return result
}

func ecoCategory(score int) string {
	switch {
	case score >= 80:
		return domain.EcoExcellent
	case score >= 65:
		return domain.EcoGood
	case score >= 50:
		return domain.EcoFair
	default:
		return domain.EcoPoor
	}
}

// TrustFromScore derives every trust field from trustScore
func TrustFromScore(trustScore int) *domain.TrustAnalysis {
	result := &domain.TrustAnalysis{
		Type:           domain.ModeTrust,
		TrustScore:     trustScore,
		Category:       trustCategory(trustScore),
		FakePercentage: int(math.Floor(float64(100-trustScore) * 0.6)),
		UsingMockData:  true,
	}

	if trustScore < 60 {
		result.RedFlags = []string{
			"Multiple reviews use generic language",
			"Suspiciously high 5-star ratio",
			"Review timing shows unusual clusters",
			"Limited verified purchases",
		}
		result.GenuineIndicators = []string{
			"Some verified purchases present",
			"Few detailed reviews found",
		}
	} else {
		result.RedFlags = []string{"Some reviews lack specific details"}
		result.GenuineIndicators = []string{
			"Multiple verified purchases present",
			"Detailed product descriptions in reviews",
			"Balanced rating distribution",
			"Reviews include specific use cases",
		}
	}

	switch {
	case trustScore >= 75:
		result.Verdict = "Reviews appear mostly genuine with good verification"
	case trustScore >= 55:
		result.Verdict = "Mixed signals detected - proceed with caution"
	default:
		result.Verdict = "High risk of fake reviews - consider alternatives"
	}

	switch {
	case trustScore >= 70:
		result.Recommendation = domain.RecommendBuy
	case trustScore >= 50:
		result.Recommendation = domain.RecommendCautious
	default:
		result.Recommendation = domain.RecommendAvoid
	}

	return result
}

func trustCategory(score int) string {
	switch {
	case score >= 80:
		return domain.TrustHighlyTrusted
	case score >= 60:
		return domain.TrustTrusted
	case score >= 40:
		return domain.TrustQuestionable
	default:
		return domain.TrustSuspicious
	}
}

func titleOf(product *domain.ProductData) string {
	if product == nil {
		return ""
	}
	return product.Title
}
