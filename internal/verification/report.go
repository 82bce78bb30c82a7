package verification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"certverify/verification-backend/internal/certificates"
	"certverify/verification-backend/pkg/pdf"
)

var statusColors = map[certificates.Status]pdf.Color{
	certificates.StatusVerified: {R: 46, G: 125, B: 50},
	certificates.StatusForged:   {R: 198, G: 40, B: 40},
	certificates.StatusPending:  {R: 245, G: 124, B: 0},
}

// Report renders the stored verification state of a certificate as a PDF
func (s *Service) Report(ctx context.Context, certID uuid.UUID) ([]byte, error) {
	cert, err := s.certs.Get(ctx, certID)
	if err != nil {
		return nil, err
	}
	data, err := s.certs.GetData(ctx, certID)
	if err != nil {
		return nil, err
	}
	raised, err := s.alerts.ForCertificate(ctx, certID)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}

	processed := "not yet verified"
	if cert.ProcessedAt != nil {
		processed = cert.ProcessedAt.UTC().Format("2006-01-02 15:04:05 MST")
	}
	doc := pdf.Document{
		Status: strings.ToUpper(string(cert.Status)),
		Sections: []pdf.Section{{
			Heading: "Certificate",
			Rows: [][2]string{
				{"Certificate ID", cert.ID.String()},
				{"File", cert.Filename},
				{"Submitted", cert.SubmittedAt.UTC().Format("2006-01-02 15:04:05 MST")},
				{"Processed", processed},
			},
		}},
	}

	extracted := pdf.Section{Heading: "Extracted Data"}
	if data == nil {
		extracted.Lines = []string{"No data has been extracted from this certificate."}
	} else {
		extracted.Rows = [][2]string{
			{"Student Name", orDash(certificates.Value(data.StudentName))},
			{"Roll Number", orDash(certificates.Value(data.RollNumber))},
			{"Certificate Number", orDash(certificates.Value(data.CertNumber))},
			{"Marks", orDash(certificates.Value(data.Marks))},
			{"OCR Confidence", fmt.Sprintf("%.1f%%", data.Confidence)},
		}
	}
	doc.Sections = append(doc.Sections, extracted)

	alertSection := pdf.Section{Heading: fmt.Sprintf("Alerts (%d)", len(raised))}
	for _, a := range raised {
		state := "open"
		if a.Resolved {
			state = "resolved"
		}
		alertSection.Lines = append(alertSection.Lines, fmt.Sprintf("[%s, %s] %s - %s",
			strings.ToUpper(string(a.Level)), state, a.FlaggedAt.UTC().Format("2006-01-02 15:04"), a.Reason))
	}
	if len(raised) == 0 {
		alertSection.Lines = []string{"No alerts were raised for this certificate."}
	}
	doc.Sections = append(doc.Sections, alertSection)

	if s.predictions != nil {
		prediction, err := s.predictions.Latest(ctx, certID)
		if err != nil {
			return nil, fmt.Errorf("failed to load AI prediction: %w", err)
		}
		if prediction != nil {
			rows := [][2]string{
				{"Model Version", prediction.ModelVersion},
				{"Genuine Probability", fmt.Sprintf("%.2f", prediction.Probability)},
				{"Predicted", prediction.PredictedAt.UTC().Format("2006-01-02 15:04")},
			}
			if prediction.ConfidenceScore != nil {
				rows = append(rows, [2]string{"Model Confidence", fmt.Sprintf("%.2f", *prediction.ConfidenceScore)})
			}
			doc.Sections = append(doc.Sections, pdf.Section{Heading: "AI Authenticity", Rows: rows})
		}
	}

	opts := pdf.DefaultOptions()
	opts.Title = "Certificate Verification Report"
	opts.Subtitle = cert.Filename
	if c, ok := statusColors[cert.Status]; ok {
		opts.StatusColor = &c
	}
	return pdf.NewGenerator(opts).Render(doc)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
