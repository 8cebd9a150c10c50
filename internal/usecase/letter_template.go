package usecase

import (
	"strings"
	"text/template"
	"time"

	"dental-order-agent/internal/domain"
)

const letterGeneratedLayout = "2006-01-02 15:04:05"

// Fields are inserted verbatim; the web app renders this document as-is.
var letterTemplate = template.Must(template.New("approval-letter").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Dental Order Approval</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            max-width: 800px;
            margin: 0 auto;
            padding: 20px;
        }
        .approval-letter {
            border: 1px solid #ddd;
            padding: 25px;
            border-radius: 5px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        h1 {
            color: #0066cc;
            border-bottom: 2px solid #0066cc;
            padding-bottom: 10px;
        }
        .section {
            margin-bottom: 20px;
        }
        .field {
            margin-bottom: 10px;
        }
        .field-label {
            font-weight: bold;
            display: inline-block;
            width: 150px;
        }
        .agent-notes {
            margin-bottom: 20px;
        }
        .footer {
            margin-top: 30px;
            border-top: 1px solid #eee;
            padding-top: 20px;
            font-style: italic;
        }
    </style>
</head>
<body>
    <div class="approval-letter">
        <h1>Dental Order Pre-Approval</h1>
        {{with .Form}}
        <div class="section">
            <div class="field">
                <span class="field-label">Date:</span> {{.Date}}
            </div>
            <div class="field">
                <span class="field-label">Dentist Name:</span> {{.DentistName}}
            </div>
            <div class="field">
                <span class="field-label">Dental Practice:</span> {{.DentalPractice}}
            </div>
            <div class="field">
                <span class="field-label">Patient ID:</span> {{.PatientID}}
            </div>
        </div>

        <div class="section">
            <h2>Order Details</h2>
            <div class="field">
                <span class="field-label">Tooth Position:</span> {{.ToothPosition}}
            </div>
            <div class="field">
                <span class="field-label">Product Type:</span> {{.ProductType}}
            </div>
            <div class="field">
                <span class="field-label">Material Category:</span> {{.MaterialCategory}}
            </div>
            <div class="field">
                <span class="field-label">Material:</span> {{.Material}}
            </div>
            <div class="field">
                <span class="field-label">Shade:</span> {{.Shade}}
            </div>
            <div class="field">
                <span class="field-label">Pontic Design:</span> {{.PonticDesign}}
            </div>
            <div class="field">
                <span class="field-label">Special Instructions:</span> {{.SpecialInstructions}}
            </div>
            <div class="field">
                <span class="field-label">Estimated Delivery:</span> {{.EstimatedDeliveryDate}}
            </div>
        </div>
        {{end}}
        <div class="section">
            <p>This letter serves as pre-approval for the above dental order. Please proceed with the fabrication and delivery of the specified dental product.</p>
            <p>Thank you for your attention to this matter.</p>
        </div>
        {{if .AgentNotes}}
        <div class="section agent-notes">{{.AgentNotes}}</div>
        {{end}}
        <div class="footer">
            <p>Sincerely,<br>
            Dental Technician<br>
            {{.Form.DentalPractice}}</p>
            <p>Generated on {{.GeneratedOn}}</p>
        </div>
    </div>
</body>
</html>`))

type letterView struct {
	Form        domain.ApprovalLetterRequest
	AgentNotes  string
	GeneratedOn string
}

// renderLetter fills the approval letter with the form fields and the agent's
// full reply. generatedAt is stamped as the render time.
func renderLetter(form domain.ApprovalLetterRequest, agentReply string, generatedAt time.Time) (string, error) {
	var sb strings.Builder
	err := letterTemplate.Execute(&sb, letterView{
		Form:        form,
		AgentNotes:  agentReply,
		GeneratedOn: generatedAt.Format(letterGeneratedLayout),
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
