package tenant

// PlanInfo describes a subscription plan for the public catalogue.
type PlanInfo struct {
	ID       Plan     `json:"id"`
	Name     string   `json:"name"`
	Price    int      `json:"price"`
	Features []string `json:"features"`
}

// SubscriptionPlans returns the static plan catalogue. Prices are monthly,
// in the billing currency's base unit.
func SubscriptionPlans() []PlanInfo {
	return []PlanInfo{
		{
			ID:    PlanBasic,
			Name:  "Basic",
			Price: 99,
			Features: []string{
				"Up to 5 devices",
				"Basic control functions",
				"Standard support",
			},
		},
		{
			ID:    PlanStandard,
			Name:  "Standard",
			Price: 299,
			Features: []string{
				"Up to 15 devices",
				"Advanced control functions",
				"Priority support",
				"Data analytics",
			},
		},
		{
			ID:    PlanPremium,
			Name:  "Premium",
			Price: 599,
			Features: []string{
				"Unlimited devices",
				"All features",
				"24/7 dedicated support",
				"Advanced data analytics",
				"Custom integrations",
			},
		},
	}
}
