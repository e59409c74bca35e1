package domain

// ProductData represents product information scraped from an e-commerce page.
// Every field may be empty; only Title gates whether a page visit is analyzed.
type ProductData struct {
	Title       string `json:"title"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Rating      string `json:"rating"`
	ReviewCount string `json:"reviewCount"`
	Reviews     string `json:"reviews"` // up to 5 samples joined by ReviewSeparator
	URL         string `json:"url"`
}

// ReviewSeparator joins review samples inside ProductData.Reviews
const ReviewSeparator = "\n\n---\n\n"

// AnalyzeRequest is the inbound message sent by a presentation surface
type AnalyzeRequest struct {
	Action string      `json:"action"`
	Mode   Mode        `json:"mode"`
	Data   ProductData `json:"data"`
}

// ActionAnalyzeProduct is the only action the coordinator services
const ActionAnalyzeProduct = "analyzeProduct"

// AnalyzeResponse is the reply to an AnalyzeRequest
type AnalyzeResponse struct {
	Success bool           `json:"success"`
	Data    AnalysisResult `json:"data,omitempty"`
	Mode    Mode           `json:"mode,omitempty"`
	Cached  bool           `json:"cached"`
}

// ErrorResponse is the body sent when a request fails
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// CurrentView is what the popup and side panel render
type CurrentView struct {
	Product  *ProductData   `json:"product"`
	Analysis AnalysisResult `json:"analysis"`
	Mode     Mode           `json:"mode"`
}
