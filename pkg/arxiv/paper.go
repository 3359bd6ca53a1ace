package arxiv

// Paper is the metadata returned for one resolved arXiv identifier.
type Paper struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	// Summary is the raw abstract. It may span several lines.
	Summary string `json:"summary"`
	PDFURL  string `json:"pdf_url"`
}
