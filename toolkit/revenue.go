package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/promptfile/promptfile/tooling/registry"
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

type monthlyRevenue struct {
	Month     int     `json:"month"`
	MonthName string  `json:"month_name"`
	Revenue   float64 `json:"revenue"`
}

type revenueReport struct {
	ClientName            string           `json:"client_name"`
	Year                  int              `json:"year"`
	TotalRevenue          float64          `json:"total_revenue"`
	AverageMonthlyRevenue float64          `json:"average_monthly_revenue"`
	MonthlyData           []monthlyRevenue `json:"monthly_data"`
}

// ClientRevenue builds the generate_client_revenue_data demo tool: twelve
// months of synthetic revenue for a named client, as a JSON document the
// model can chart or summarize. A nil rng uses the shared global source.
func ClientRevenue(rng *rand.Rand) registry.Descriptor {
	randomFloat := rand.Float64
	if rng != nil {
		randomFloat = rng.Float64
	}

	return registry.Descriptor{
		Name:        "generate_client_revenue_data",
		Kind:        registry.KindCustom,
		Description: "Generate twelve months of demonstration revenue data for a client.",
		Schema: registry.ArgumentSchema{Fields: []registry.Field{
			{Name: "client_name", Type: registry.FieldString, Description: "The name of the client", Required: true},
			{Name: "year", Type: registry.FieldInteger, Description: "The year for which to generate revenue data", Required: true, Minimum: floatPtr(2020), Maximum: floatPtr(2030)},
		}},
		Invoke: func(_ context.Context, arguments map[string]any) (string, error) {
			clientName, _ := arguments["client_name"].(string)
			year := 0
			if raw, ok := arguments["year"].(float64); ok {
				year = int(raw)
			}

			report := generateRevenue(clientName, year, randomFloat)
			encoded, err := json.Marshal(report)
			if err != nil {
				return "", fmt.Errorf("encode revenue report: %w", err)
			}
			return string(encoded), nil
		},
	}
}

// generateRevenue starts from a random base of 1 to 10 million and varies
// each following month by up to half of the previous month, floored at 100k.
func generateRevenue(clientName string, year int, randomFloat func() float64) revenueReport {
	base := 1_000_000 + randomFloat()*9_000_000

	monthly := make([]monthlyRevenue, 0, 12)
	current := base
	total := 0.0
	for month := 1; month <= 12; month++ {
		revenue := current
		if month > 1 {
			variation := randomFloat() - 0.5
			revenue = math.Max(current*(1+variation), 100_000)
		}
		revenue = round2(revenue)
		monthly = append(monthly, monthlyRevenue{
			Month:     month,
			MonthName: monthNames[month-1],
			Revenue:   revenue,
		})
		current = revenue
		total += revenue
	}

	return revenueReport{
		ClientName:            clientName,
		Year:                  year,
		TotalRevenue:          round2(total),
		AverageMonthlyRevenue: round2(total / 12),
		MonthlyData:           monthly,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
