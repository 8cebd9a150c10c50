package domain

// ApprovalLetterRequest holds the pre-approval form as submitted by the web
// app. Field order matches the prompt sent to the agent.
type ApprovalLetterRequest struct {
	Date                  string `json:"date"`
	DentistName           string `json:"dentistName"`
	DentalPractice        string `json:"dentalPractice"`
	PatientID             string `json:"patientId"`
	ToothPosition         string `json:"toothPosition"`
	ProductType           string `json:"productType"`
	MaterialCategory      string `json:"materialCategory"`
	Material              string `json:"material"`
	Shade                 string `json:"shade"`
	PonticDesign          string `json:"ponticDesign"`
	SpecialInstructions   string `json:"specialInstructions"`
	EstimatedDeliveryDate string `json:"estimatedDeliveryDate"`
}
