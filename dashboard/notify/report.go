package notify

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"insurance_platform/dashboard/model"
)

type bmiAnalysis struct {
	Category    string
	RiskLevel   string
	Description string
}

func analyzeBmi(bmi float64) bmiAnalysis {
	switch {
	case bmi < 18.5:
		return bmiAnalysis{
			Category:    "Underweight",
			RiskLevel:   "Moderate",
			Description: "BMI below normal range may indicate nutritional deficiencies",
		}
	case bmi < 25:
		return bmiAnalysis{
			Category:    "Normal Weight",
			RiskLevel:   "Low",
			Description: "BMI in healthy range - optimal for insurance risk assessment",
		}
	case bmi < 30:
		return bmiAnalysis{
			Category:    "Overweight",
			RiskLevel:   "Moderate",
			Description: "BMI above normal range - lifestyle modifications recommended",
		}
	default:
		return bmiAnalysis{
			Category:    "Obese",
			RiskLevel:   "High",
			Description: "BMI indicates obesity - significant health risks and higher claim probability",
		}
	}
}

func insights(input model.FeatureInput) []string {
	var out []string

	if input.Age > 50 {
		out = append(out, fmt.Sprintf("Age factor: At %v years, age-related health risks may contribute to higher claim probability", input.Age))
	}

	switch {
	case input.Bmi < 18.5:
		out = append(out, "BMI indicates underweight status - consider nutritional consultation")
	case input.Bmi >= 30:
		out = append(out, "BMI indicates obesity - lifestyle modifications recommended to reduce health risks")
	case input.Bmi < 25:
		out = append(out, "BMI is in healthy range - maintain current lifestyle for optimal health")
	}

	if input.Smoker == "Yes" {
		out = append(out, "Smoking significantly increases health risks and claim probability - cessation programs recommended")
	}

	return out
}

// formatInr renders a rupee amount with thousands separators, no decimals.
func formatInr(value float64) string {
	whole := fmt.Sprintf("%.0f", value)
	negative := strings.HasPrefix(whole, "-")
	if negative {
		whole = whole[1:]
	}

	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%v₹%v", sign, grouped.String())
}

var reportTemplate = template.Must(template.New("prediction_report").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: Arial, sans-serif; color: #333; }
  .container { max-width: 600px; margin: 0 auto; padding: 20px; }
  .header { background: #667eea; color: white; padding: 20px; border-radius: 8px; text-align: center; }
  .section { margin: 20px 0; }
  .section h2 { color: #667eea; border-bottom: 2px solid #667eea; padding-bottom: 5px; }
  .info-item { background: #f8f9fa; padding: 10px; margin: 5px 0; border-left: 4px solid #667eea; }
  .prediction { background: #667eea; color: white; padding: 20px; border-radius: 8px; text-align: center; }
  .prediction .amount { font-size: 28px; font-weight: bold; }
  .disclaimer { background: #e9ecef; padding: 15px; border-radius: 5px; font-size: 12px; color: #666; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>MediCare+ Prediction Report</h1>
    <p>AI-Powered Medical Insurance Analysis</p>
  </div>

  <div class="section">
    <h2>Patient Information</h2>
    <div class="info-item"><strong>Age:</strong> {{.Input.Age}} years</div>
    <div class="info-item"><strong>BMI:</strong> {{.Input.Bmi}}</div>
    <div class="info-item"><strong>Gender:</strong> {{.Input.Gender}}</div>
    <div class="info-item"><strong>Smoking Status:</strong> {{.Input.Smoker}}</div>
    <div class="info-item"><strong>Region:</strong> {{.Input.Region}}</div>
    <div class="info-item"><strong>Annual Premium:</strong> {{.Premium}}</div>
  </div>

  <div class="prediction">
    <div class="amount">{{.Amount}}</div>
    <div>Confidence: {{.Confidence}}% | Generated: {{.Timestamp}}</div>
  </div>

  <div class="section">
    <h2>BMI Analysis</h2>
    <div class="info-item"><strong>BMI Category:</strong> {{.Bmi.Category}}</div>
    <div class="info-item"><strong>Health Risk Level:</strong> {{.Bmi.RiskLevel}}<p>{{.Bmi.Description}}</p></div>
  </div>

  <div class="section">
    <h2>Key Insights</h2>
    <ul>
    {{range .Insights}}<li>{{.}}</li>
    {{end}}</ul>
  </div>

  <div class="disclaimer">
    <strong>Medical Disclaimer:</strong> This AI-generated prediction is for educational and
    informational purposes only. It should not be used as a substitute for professional
    medical advice, diagnosis, or treatment.
  </div>
</div>
</body>
</html>
`))

func renderReport(input model.FeatureInput, prediction, confidence float64) (subject, html string, err error) {
	amount := formatInr(prediction)

	premium := "Estimated"
	if input.PremiumAnnualInr > 0 {
		premium = formatInr(input.PremiumAnnualInr)
	}

	data := struct {
		Input      model.FeatureInput
		Amount     string
		Premium    string
		Confidence float64
		Timestamp  string
		Bmi        bmiAnalysis
		Insights   []string
	}{
		Input:      input,
		Amount:     amount,
		Premium:    premium,
		Confidence: float64(int(confidence*1000+0.5)) / 10,
		Timestamp:  time.Now().Format("January 2, 2006 at 3:04 PM"),
		Bmi:        analyzeBmi(input.Bmi),
		Insights:   insights(input),
	}

	var rendered strings.Builder
	if err := reportTemplate.Execute(&rendered, data); err != nil {
		return "", "", fmt.Errorf("error rendering report template: %w", err)
	}

	return fmt.Sprintf("MediCare+ Prediction Report - %v", amount), rendered.String(), nil
}
