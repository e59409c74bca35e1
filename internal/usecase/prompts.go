package usecase

import (
	"fmt"

	"github.com/shopsmart/backend/internal/domain"
)

const ecoSystemPrompt = `You are an expert sustainability analyst for e-commerce products.

Analyze products based on:
- Materials: Natural/organic/recycled vs synthetic/petroleum-based
- Certifications: GOTS, Fair Trade, B-Corp, USDA Organic, FSC
- Packaging: Minimal, recyclable, biodegradable, plastic-free
- Brand ethics: Carbon neutral, supply chain transparency

Return ONLY valid JSON:
{
  "score": <number 0-100>,
  "category": "excellent|good|fair|poor",
  "materials": "<brief material assessment>",
  "certifications": ["<list of certs found or 'None verified'>"],
  "packaging": "<packaging assessment>",
  "concerns": "<main sustainability concerns>",
  "summary": "<1-2 sentence overall assessment>"
}`

const trustSystemPrompt = `You are an expert in detecting fake product reviews and analyzing review authenticity.

Red flags to detect:
- Generic language: "amazing", "best ever", "highly recommend" without specifics
- Overly positive/negative without balanced details
- Similar phrasing patterns across multiple reviews
- Suspiciously timed review clusters
- Low verified purchase ratio
- Short, vague reviews
- Excessive use of brand name

Genuine indicators:
- Specific product details mentioned
- Balanced pros and cons
- Verified purchase badges
- Detailed usage experiences
- Photos/videos from buyers
- Normal rating distribution

Return ONLY valid JSON:
{
  "trustScore": <number 0-100>,
  "category": "highly_trusted|trusted|questionable|suspicious",
  "fakePercentage": <estimated % of fake reviews 0-100>,
  "redFlags": ["<list of concerns found>"],
  "genuineIndicators": ["<list of positive signs>"],
  "verdict": "<brief trust assessment>",
  "recommendation": "buy|cautious|avoid"
}`

var (
	ecoRequiredFields   = []string{"score", "category", "materials", "certifications", "packaging", "concerns", "summary"}
	trustRequiredFields = []string{"trustScore", "category", "fakePercentage", "redFlags", "genuineIndicators", "verdict", "recommendation"}
)

// summaryOptions is used to shorten long product descriptions before prompting
var summaryOptions = domain.SummarizerOptions{Type: "key-points", Length: "short"}

func ecoUserPrompt(product *domain.ProductData, description string) string {
	return fmt.Sprintf(`Analyze this product for sustainability:

Title: %s
Description: %s
Price: %s

Return JSON only.`, product.Title, description, product.Price)
}

func trustUserPrompt(product *domain.ProductData) string {
	return fmt.Sprintf(`Analyze review authenticity for this product:

Product: %s
Rating: %s
Review Count: %s

Sample Reviews:
%s

Return JSON only.`,
		product.Title,
		orDefault(product.Rating, "N/A"),
		orDefault(product.ReviewCount, "N/A"),
		orDefault(product.Reviews, "Limited review data available"),
	)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
