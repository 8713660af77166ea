package diag

// Stats summarises a diagnostic set.
type Stats struct {
	Total           int `json:"total"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Info            int `json:"info"`
	StyleIssues     int `json:"style_issues"`
	RuntimeIssues   int `json:"runtime_issues"`
	FilesWithIssues int `json:"files_with_issues"`
}

func ComputeStats(ds []Diagnostic) Stats {
	st := Stats{Total: len(ds)}
	files := make(map[string]struct{})
	for i := range ds {
		switch ds[i].Severity {
		case SevError:
			st.Errors++
		case SevWarning:
			st.Warnings++
		case SevInfo:
			st.Info++
		}
		switch ds[i].Category {
		case CatStyle:
			st.StyleIssues++
		case CatRuntime:
			st.RuntimeIssues++
		}
		files[ds[i].Location.File] = struct{}{}
	}
	st.FilesWithIssues = len(files)
	return st
}
