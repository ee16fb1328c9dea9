package filter

// ServiceFlags selects clients by the service flags on their cases. A nil
// flag is ignored; false matches only cases where the flag is false.
type ServiceFlags struct {
	EmploymentAssistance               *bool `form:"employment_assistance" json:"employment_assistance,omitempty"`
	LifeStabilization                  *bool `form:"life_stabilization" json:"life_stabilization,omitempty"`
	RetentionServices                  *bool `form:"retention_services" json:"retention_services,omitempty"`
	SpecializedServices                *bool `form:"specialized_services" json:"specialized_services,omitempty"`
	EmploymentRelatedFinancialSupports *bool `form:"employment_related_financial_supports" json:"employment_related_financial_supports,omitempty"`
	EmployerFinancialSupports          *bool `form:"employer_financial_supports" json:"employer_financial_supports,omitempty"`
	EnhancedReferrals                  *bool `form:"enhanced_referrals" json:"enhanced_referrals,omitempty"`
}

// Predicates returns equality predicates over client_cases columns.
func (s *ServiceFlags) Predicates() []Predicate {
	flags := []struct {
		column string
		value  *bool
	}{
		{"employment_assistance", s.EmploymentAssistance},
		{"life_stabilization", s.LifeStabilization},
		{"retention_services", s.RetentionServices},
		{"specialized_services", s.SpecializedServices},
		{"employment_related_financial_supports", s.EmploymentRelatedFinancialSupports},
		{"employer_financial_supports", s.EmployerFinancialSupports},
		{"enhanced_referrals", s.EnhancedReferrals},
	}

	var preds []Predicate
	for _, f := range flags {
		if f.value != nil {
			preds = append(preds, Eq(f.column, *f.value))
		}
	}
	return preds
}
