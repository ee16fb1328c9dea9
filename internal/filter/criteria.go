package filter

import "casetrack/internal/apperr"

// Criteria are the optional client search parameters. A nil field imposes
// no constraint.
type Criteria struct {
	EmploymentStatus            *bool `form:"employment_status" json:"employment_status,omitempty"`
	EducationLevel              *int  `form:"education_level" json:"education_level,omitempty"`
	AgeMin                      *int  `form:"age_min" json:"age_min,omitempty"`
	Gender                      *int  `form:"gender" json:"gender,omitempty"`
	WorkExperience              *int  `form:"work_experience" json:"work_experience,omitempty" validate:"omitnil,gte=0"`
	CanadaWorkex                *int  `form:"canada_workex" json:"canada_workex,omitempty" validate:"omitnil,gte=0"`
	DepNum                      *int  `form:"dep_num" json:"dep_num,omitempty" validate:"omitnil,gte=0"`
	CanadaBorn                  *bool `form:"canada_born" json:"canada_born,omitempty"`
	CitizenStatus               *bool `form:"citizen_status" json:"citizen_status,omitempty"`
	FluentEnglish               *bool `form:"fluent_english" json:"fluent_english,omitempty"`
	ReadingEnglishScale         *int  `form:"reading_english_scale" json:"reading_english_scale,omitempty" validate:"omitnil,gte=0,lte=10"`
	SpeakingEnglishScale        *int  `form:"speaking_english_scale" json:"speaking_english_scale,omitempty" validate:"omitnil,gte=0,lte=10"`
	WritingEnglishScale         *int  `form:"writing_english_scale" json:"writing_english_scale,omitempty" validate:"omitnil,gte=0,lte=10"`
	NumeracyScale               *int  `form:"numeracy_scale" json:"numeracy_scale,omitempty" validate:"omitnil,gte=0,lte=10"`
	ComputerScale               *int  `form:"computer_scale" json:"computer_scale,omitempty" validate:"omitnil,gte=0,lte=10"`
	TransportationBool          *bool `form:"transportation_bool" json:"transportation_bool,omitempty"`
	CaregiverBool               *bool `form:"caregiver_bool" json:"caregiver_bool,omitempty"`
	Housing                     *int  `form:"housing" json:"housing,omitempty" validate:"omitnil,gte=1,lte=10"`
	IncomeSource                *int  `form:"income_source" json:"income_source,omitempty" validate:"omitnil,gte=1,lte=11"`
	FelonyBool                  *bool `form:"felony_bool" json:"felony_bool,omitempty"`
	AttendingSchool             *bool `form:"attending_school" json:"attending_school,omitempty"`
	SubstanceUse                *bool `form:"substance_use" json:"substance_use,omitempty"`
	TimeUnemployed              *int  `form:"time_unemployed" json:"time_unemployed,omitempty" validate:"omitnil,gte=0"`
	NeedMentalHealthSupportBool *bool `form:"need_mental_health_support_bool" json:"need_mental_health_support_bool,omitempty"`
}

// Validate checks the preconditions that must hold before any query runs.
func (c *Criteria) Validate() error {
	if c.EducationLevel != nil && (*c.EducationLevel < 1 || *c.EducationLevel > 14) {
		return apperr.InvalidArgument("Education level must be between 1 and 14")
	}
	if c.AgeMin != nil && *c.AgeMin < 18 {
		return apperr.InvalidArgument("Minimum age must be at least 18")
	}
	if c.Gender != nil && *c.Gender != 1 && *c.Gender != 2 {
		return apperr.InvalidArgument("Gender must be 1 or 2")
	}
	return nil
}

// Predicates returns one predicate per provided parameter, in a fixed order.
// age_min is the only range constraint; everything else is equality.
func (c *Criteria) Predicates() []Predicate {
	var preds []Predicate
	eq := func(column string, v any) {
		preds = append(preds, Eq(column, v))
	}

	if c.EmploymentStatus != nil {
		eq("currently_employed", *c.EmploymentStatus)
	}
	if c.AgeMin != nil {
		preds = append(preds, Gte("age", *c.AgeMin))
	}
	if c.Gender != nil {
		eq("gender", *c.Gender)
	}
	if c.EducationLevel != nil {
		eq("level_of_schooling", *c.EducationLevel)
	}
	if c.WorkExperience != nil {
		eq("work_experience", *c.WorkExperience)
	}
	if c.CanadaWorkex != nil {
		eq("canada_workex", *c.CanadaWorkex)
	}
	if c.DepNum != nil {
		eq("dep_num", *c.DepNum)
	}
	if c.CanadaBorn != nil {
		eq("canada_born", *c.CanadaBorn)
	}
	if c.CitizenStatus != nil {
		eq("citizen_status", *c.CitizenStatus)
	}
	if c.FluentEnglish != nil {
		eq("fluent_english", *c.FluentEnglish)
	}
	if c.ReadingEnglishScale != nil {
		eq("reading_english_scale", *c.ReadingEnglishScale)
	}
	if c.SpeakingEnglishScale != nil {
		eq("speaking_english_scale", *c.SpeakingEnglishScale)
	}
	if c.WritingEnglishScale != nil {
		eq("writing_english_scale", *c.WritingEnglishScale)
	}
	if c.NumeracyScale != nil {
		eq("numeracy_scale", *c.NumeracyScale)
	}
	if c.ComputerScale != nil {
		eq("computer_scale", *c.ComputerScale)
	}
	if c.TransportationBool != nil {
		eq("transportation_bool", *c.TransportationBool)
	}
	if c.CaregiverBool != nil {
		eq("caregiver_bool", *c.CaregiverBool)
	}
	if c.Housing != nil {
		eq("housing", *c.Housing)
	}
	if c.IncomeSource != nil {
		eq("income_source", *c.IncomeSource)
	}
	if c.FelonyBool != nil {
		eq("felony_bool", *c.FelonyBool)
	}
	if c.AttendingSchool != nil {
		eq("attending_school", *c.AttendingSchool)
	}
	if c.SubstanceUse != nil {
		eq("substance_use", *c.SubstanceUse)
	}
	if c.TimeUnemployed != nil {
		eq("time_unemployed", *c.TimeUnemployed)
	}
	if c.NeedMentalHealthSupportBool != nil {
		eq("need_mental_health_support_bool", *c.NeedMentalHealthSupportBool)
	}
	return preds
}
