package sentiment

import (
	"fmt"
	"io"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

// Report aggregates classified records.
type Report struct {
	Total           int
	Positive        float64
	Neutral         float64
	Negative        float64
	PositiveSamples []string
	NegativeSamples []string
}

// Summarize computes label percentages and keeps the first sampleSize
// positive and negative texts. Percentages are 0 when records is empty.
func Summarize(records []models.SentimentRecord, sampleSize int) Report {
	report := Report{Total: len(records)}
	if len(records) == 0 {
		return report
	}

	var positive, neutral, negative int
	for _, rec := range records {
		switch rec.Sentiment {
		case models.SentimentPositive:
			positive++
			if len(report.PositiveSamples) < sampleSize {
				report.PositiveSamples = append(report.PositiveSamples, rec.Text)
			}
		case models.SentimentNegative:
			negative++
			if len(report.NegativeSamples) < sampleSize {
				report.NegativeSamples = append(report.NegativeSamples, rec.Text)
			}
		default:
			neutral++
		}
	}

	total := float64(len(records))
	report.Positive = 100 * float64(positive) / total
	report.Neutral = 100 * float64(neutral) / total
	report.Negative = 100 * float64(negative) / total
	return report
}

// Print writes the percentages followed by the sample texts.
func (r Report) Print(w io.Writer) error {
	lines := []string{
		fmt.Sprintf("Posts analysed: %d", r.Total),
		fmt.Sprintf("Positive posts percentage: %.2f %%", r.Positive),
		fmt.Sprintf("Negative posts percentage: %.2f %%", r.Negative),
		fmt.Sprintf("Neutral posts percentage: %.2f %%", r.Neutral),
		"",
		"Positive posts:",
	}
	lines = append(lines, r.PositiveSamples...)
	lines = append(lines, "", "Negative posts:")
	lines = append(lines, r.NegativeSamples...)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
