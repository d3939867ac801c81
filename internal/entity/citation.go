package entity

type CitationSearch struct {
	Query    string `json:"query"`
	CaseType string `json:"case_type,omitempty"`
	Limit    int    `json:"limit"`
}

type Citation struct {
	Title          string  `json:"title"`
	Citation       string  `json:"citation"`
	Court          string  `json:"court"`
	Year           int     `json:"year"`
	RelevanceScore float64 `json:"relevance_score"`
	Summary        string  `json:"summary,omitempty"`
}

type CitationResponse struct {
	Citations []Citation `json:"citations"`
	Total     int        `json:"total"`
}

type Health struct {
	Status    string `json:"status"`
	Database  string `json:"database,omitempty"`
	AIService string `json:"ai_service,omitempty"`
}
