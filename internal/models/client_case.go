package models

// ServiceFlags are the seven service categories a case worker can provide.
type ServiceFlags struct {
	EmploymentAssistance               bool `json:"employment_assistance"`
	LifeStabilization                  bool `json:"life_stabilization"`
	RetentionServices                  bool `json:"retention_services"`
	SpecializedServices                bool `json:"specialized_services"`
	EmploymentRelatedFinancialSupports bool `json:"employment_related_financial_supports"`
	EmployerFinancialSupports          bool `json:"employer_financial_supports"`
	EnhancedReferrals                  bool `json:"enhanced_referrals"`
}

// ServiceColumns lists the service flag columns of client_cases in
// ServiceFlags order.
var ServiceColumns = []string{
	"employment_assistance",
	"life_stabilization",
	"retention_services",
	"specialized_services",
	"employment_related_financial_supports",
	"employer_financial_supports",
	"enhanced_referrals",
}

// Values returns the flags in ServiceColumns order.
func (f *ServiceFlags) Values() []bool {
	return []bool{
		f.EmploymentAssistance, f.LifeStabilization, f.RetentionServices,
		f.SpecializedServices, f.EmploymentRelatedFinancialSupports,
		f.EmployerFinancialSupports, f.EnhancedReferrals,
	}
}

// Dest returns scan targets in ServiceColumns order.
func (f *ServiceFlags) Dest() []any {
	return []any{
		&f.EmploymentAssistance, &f.LifeStabilization, &f.RetentionServices,
		&f.SpecializedServices, &f.EmploymentRelatedFinancialSupports,
		&f.EmployerFinancialSupports, &f.EnhancedReferrals,
	}
}

// ClientCase is one case worker's engagement with one client.
type ClientCase struct {
	ClientID int64 `json:"client_id"`
	UserID   int64 `json:"user_id"`
	ServiceFlags
	SuccessRate int `json:"success_rate"`
}

// ServiceUpdate is a partial case payload.
type ServiceUpdate struct {
	EmploymentAssistance               Optional[bool] `json:"employment_assistance,omitzero"`
	LifeStabilization                  Optional[bool] `json:"life_stabilization,omitzero"`
	RetentionServices                  Optional[bool] `json:"retention_services,omitzero"`
	SpecializedServices                Optional[bool] `json:"specialized_services,omitzero"`
	EmploymentRelatedFinancialSupports Optional[bool] `json:"employment_related_financial_supports,omitzero"`
	EmployerFinancialSupports          Optional[bool] `json:"employer_financial_supports,omitzero"`
	EnhancedReferrals                  Optional[bool] `json:"enhanced_referrals,omitzero"`
	SuccessRate                        Optional[int]  `json:"success_rate,omitzero"`
}

// Assignments validates the present fields and returns the columns to write.
func (u *ServiceUpdate) Assignments() ([]Assignment, error) {
	return collect([]fieldUpdate{
		boolUpdate("employment_assistance", u.EmploymentAssistance),
		boolUpdate("life_stabilization", u.LifeStabilization),
		boolUpdate("retention_services", u.RetentionServices),
		boolUpdate("specialized_services", u.SpecializedServices),
		boolUpdate("employment_related_financial_supports", u.EmploymentRelatedFinancialSupports),
		boolUpdate("employer_financial_supports", u.EmployerFinancialSupports),
		boolUpdate("enhanced_referrals", u.EnhancedReferrals),
		intUpdate("success_rate", u.SuccessRate, 0, 100),
	})
}
