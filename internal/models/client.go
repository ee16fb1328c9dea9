package models

import "math"

// Profile holds the demographic and socioeconomic attributes of a client.
// Prediction requests carry the same fields.
type Profile struct {
	Age                         int  `json:"age" validate:"gte=18"`
	Gender                      int  `json:"gender" validate:"oneof=1 2"`
	WorkExperience              int  `json:"work_experience" validate:"gte=0"`
	CanadaWorkex                int  `json:"canada_workex" validate:"gte=0"`
	DepNum                      int  `json:"dep_num" validate:"gte=0"`
	CanadaBorn                  bool `json:"canada_born"`
	CitizenStatus               bool `json:"citizen_status"`
	LevelOfSchooling            int  `json:"level_of_schooling" validate:"gte=1,lte=14"`
	FluentEnglish               bool `json:"fluent_english"`
	ReadingEnglishScale         int  `json:"reading_english_scale" validate:"gte=0,lte=10"`
	SpeakingEnglishScale        int  `json:"speaking_english_scale" validate:"gte=0,lte=10"`
	WritingEnglishScale         int  `json:"writing_english_scale" validate:"gte=0,lte=10"`
	NumeracyScale               int  `json:"numeracy_scale" validate:"gte=0,lte=10"`
	ComputerScale               int  `json:"computer_scale" validate:"gte=0,lte=10"`
	TransportationBool          bool `json:"transportation_bool"`
	CaregiverBool               bool `json:"caregiver_bool"`
	Housing                     int  `json:"housing" validate:"gte=1,lte=10"`
	IncomeSource                int  `json:"income_source" validate:"gte=1,lte=11"`
	FelonyBool                  bool `json:"felony_bool"`
	AttendingSchool             bool `json:"attending_school"`
	CurrentlyEmployed           bool `json:"currently_employed"`
	SubstanceUse                bool `json:"substance_use"`
	TimeUnemployed              int  `json:"time_unemployed" validate:"gte=0"`
	NeedMentalHealthSupportBool bool `json:"need_mental_health_support_bool"`
}

// Client is a person record. ID never changes after creation.
type Client struct {
	ID int64 `json:"id"`
	Profile
}

// ClientList is one page of clients plus the total number stored.
type ClientList struct {
	Clients []Client `json:"clients"`
	Total   int      `json:"total"`
}

// ClientColumns lists the attribute columns of the clients table in the
// order Profile declares them.
var ClientColumns = []string{
	"age", "gender", "work_experience", "canada_workex", "dep_num",
	"canada_born", "citizen_status", "level_of_schooling", "fluent_english",
	"reading_english_scale", "speaking_english_scale", "writing_english_scale",
	"numeracy_scale", "computer_scale", "transportation_bool", "caregiver_bool",
	"housing", "income_source", "felony_bool", "attending_school",
	"currently_employed", "substance_use", "time_unemployed",
	"need_mental_health_support_bool",
}

// Values returns the attributes in ClientColumns order.
func (p *Profile) Values() []any {
	return []any{
		p.Age, p.Gender, p.WorkExperience, p.CanadaWorkex, p.DepNum,
		p.CanadaBorn, p.CitizenStatus, p.LevelOfSchooling, p.FluentEnglish,
		p.ReadingEnglishScale, p.SpeakingEnglishScale, p.WritingEnglishScale,
		p.NumeracyScale, p.ComputerScale, p.TransportationBool, p.CaregiverBool,
		p.Housing, p.IncomeSource, p.FelonyBool, p.AttendingSchool,
		p.CurrentlyEmployed, p.SubstanceUse, p.TimeUnemployed,
		p.NeedMentalHealthSupportBool,
	}
}

// Dest returns scan targets in ClientColumns order.
func (p *Profile) Dest() []any {
	return []any{
		&p.Age, &p.Gender, &p.WorkExperience, &p.CanadaWorkex, &p.DepNum,
		&p.CanadaBorn, &p.CitizenStatus, &p.LevelOfSchooling, &p.FluentEnglish,
		&p.ReadingEnglishScale, &p.SpeakingEnglishScale, &p.WritingEnglishScale,
		&p.NumeracyScale, &p.ComputerScale, &p.TransportationBool, &p.CaregiverBool,
		&p.Housing, &p.IncomeSource, &p.FelonyBool, &p.AttendingSchool,
		&p.CurrentlyEmployed, &p.SubstanceUse, &p.TimeUnemployed,
		&p.NeedMentalHealthSupportBool,
	}
}

// ClientUpdate is a partial client payload. Only fields present in the
// request body are written.
type ClientUpdate struct {
	Age                         Optional[int]  `json:"age,omitzero"`
	Gender                      Optional[int]  `json:"gender,omitzero"`
	WorkExperience              Optional[int]  `json:"work_experience,omitzero"`
	CanadaWorkex                Optional[int]  `json:"canada_workex,omitzero"`
	DepNum                      Optional[int]  `json:"dep_num,omitzero"`
	CanadaBorn                  Optional[bool] `json:"canada_born,omitzero"`
	CitizenStatus               Optional[bool] `json:"citizen_status,omitzero"`
	LevelOfSchooling            Optional[int]  `json:"level_of_schooling,omitzero"`
	FluentEnglish               Optional[bool] `json:"fluent_english,omitzero"`
	ReadingEnglishScale         Optional[int]  `json:"reading_english_scale,omitzero"`
	SpeakingEnglishScale        Optional[int]  `json:"speaking_english_scale,omitzero"`
	WritingEnglishScale         Optional[int]  `json:"writing_english_scale,omitzero"`
	NumeracyScale               Optional[int]  `json:"numeracy_scale,omitzero"`
	ComputerScale               Optional[int]  `json:"computer_scale,omitzero"`
	TransportationBool          Optional[bool] `json:"transportation_bool,omitzero"`
	CaregiverBool               Optional[bool] `json:"caregiver_bool,omitzero"`
	Housing                     Optional[int]  `json:"housing,omitzero"`
	IncomeSource                Optional[int]  `json:"income_source,omitzero"`
	FelonyBool                  Optional[bool] `json:"felony_bool,omitzero"`
	AttendingSchool             Optional[bool] `json:"attending_school,omitzero"`
	CurrentlyEmployed           Optional[bool] `json:"currently_employed,omitzero"`
	SubstanceUse                Optional[bool] `json:"substance_use,omitzero"`
	TimeUnemployed              Optional[int]  `json:"time_unemployed,omitzero"`
	NeedMentalHealthSupportBool Optional[bool] `json:"need_mental_health_support_bool,omitzero"`
}

func (u *ClientUpdate) mask() []fieldUpdate {
	return []fieldUpdate{
		intUpdate("age", u.Age, 18, math.MaxInt),
		intUpdate("gender", u.Gender, 1, 2),
		intUpdate("work_experience", u.WorkExperience, 0, math.MaxInt),
		intUpdate("canada_workex", u.CanadaWorkex, 0, math.MaxInt),
		intUpdate("dep_num", u.DepNum, 0, math.MaxInt),
		boolUpdate("canada_born", u.CanadaBorn),
		boolUpdate("citizen_status", u.CitizenStatus),
		intUpdate("level_of_schooling", u.LevelOfSchooling, 1, 14),
		boolUpdate("fluent_english", u.FluentEnglish),
		intUpdate("reading_english_scale", u.ReadingEnglishScale, 0, 10),
		intUpdate("speaking_english_scale", u.SpeakingEnglishScale, 0, 10),
		intUpdate("writing_english_scale", u.WritingEnglishScale, 0, 10),
		intUpdate("numeracy_scale", u.NumeracyScale, 0, 10),
		intUpdate("computer_scale", u.ComputerScale, 0, 10),
		boolUpdate("transportation_bool", u.TransportationBool),
		boolUpdate("caregiver_bool", u.CaregiverBool),
		intUpdate("housing", u.Housing, 1, 10),
		intUpdate("income_source", u.IncomeSource, 1, 11),
		boolUpdate("felony_bool", u.FelonyBool),
		boolUpdate("attending_school", u.AttendingSchool),
		boolUpdate("currently_employed", u.CurrentlyEmployed),
		boolUpdate("substance_use", u.SubstanceUse),
		intUpdate("time_unemployed", u.TimeUnemployed, 0, math.MaxInt),
		boolUpdate("need_mental_health_support_bool", u.NeedMentalHealthSupportBool),
	}
}

// Assignments validates the present fields and returns the columns to write.
// An empty result means the payload changes nothing.
func (u *ClientUpdate) Assignments() ([]Assignment, error) {
	return collect(u.mask())
}
