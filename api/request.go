package api

// SourceFile is one submitted source file, sent verbatim to the grading backend.
type SourceFile struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// GradingRecord is the request body posted to the grading backend.
// One record is produced per submission per pipeline run.
type GradingRecord struct {
	UserID      string       `json:"user_id"`
	Task        string       `json:"task"`
	ReadMe      string       `json:"read_me"`
	SourceFiles []SourceFile `json:"source_files"`
	TestResults string       `json:"test_results"`
}

// Filenames lists the source file names in record order.
func (r *GradingRecord) Filenames() []string {
	res := make([]string, 0, len(r.SourceFiles))
	for _, sf := range r.SourceFiles {
		res = append(res, sf.Filename)
	}
	return res
}
