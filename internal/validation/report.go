package validation

import (
	"fmt"
	"io"
	"strings"
)

// reportCategories group related checks for the printed report, keyed by
// a prefix match against the metric name.
var reportCategories = []struct {
	Name     string
	Prefixes []string
}{
	{"Demographics", []string{"Mean Age", "Pump Usage"}},
	{"Phase Balance", []string{"Follicular Phase Ratio"}},
	{"Physiologic Means", []string{"Follicular Mean", "Luteal Mean"}},
	{"Symptom Rates", []string{"Follicular Night", "Luteal Night", "Follicular Palpitations", "Luteal Palpitations"}},
	{"Intervention", []string{"Intervention"}},
}

// PrintReport writes a human-readable summary of the last run to w.
// Passing checks are suppressed unless verbose is set.
func (v *CohortValidator) PrintReport(w io.Writer, verbose bool) {
	var passed int
	for _, r := range v.results {
		if r.Passed {
			passed++
		}
	}

	fmt.Fprintf(w, "Cohort validation: %d/%d checks passed (%d responses)\n",
		passed, len(v.results), len(v.responses))

	for _, category := range reportCategories {
		var lines []string
		for _, r := range v.results {
			if !matchesCategory(r.Metric, category.Prefixes) {
				continue
			}
			if r.Passed && !verbose {
				continue
			}
			status := "FAIL"
			if r.Passed {
				status = "PASS"
			}
			lines = append(lines, fmt.Sprintf("  [%s] %-45s expected %8.2f  observed %8.2f  (%s)",
				status, r.Metric, r.Expected, r.Observed, r.Message))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", category.Name)
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
	}
}

func matchesCategory(metric string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(metric, prefix) {
			return true
		}
	}
	return false
}
