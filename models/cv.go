package models

// CvData represents the structured résumé of a candidate
type CvData struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	LinkedIn     string       `json:"linkedin,omitempty"`
	Summary      string       `json:"summary,omitempty"`
	Skills       []string     `json:"skills"`
	Experience   []Experience `json:"experience"`
	Education    []Education  `json:"education"`
}

// PersonalInfo holds the candidate contact details
type PersonalInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Experience represents one position held by the candidate
type Experience struct {
	JobTitle         string              `json:"jobTitle"`
	Company          string              `json:"company"`
	Duration         string              `json:"duration"`
	Responsibilities FlexibleStringSlice `json:"responsibilities"`
}

// Education represents one diploma or training
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Duration    string `json:"duration"`
}

// Normalize replaces nil slices with empty ones so the JSON shape stays stable
func (cv *CvData) Normalize() {
	if cv.Skills == nil {
		cv.Skills = []string{}
	}
	if cv.Experience == nil {
		cv.Experience = []Experience{}
	}
	if cv.Education == nil {
		cv.Education = []Education{}
	}
	for i := range cv.Experience {
		if cv.Experience[i].Responsibilities == nil {
			cv.Experience[i].Responsibilities = FlexibleStringSlice{}
		}
	}
}

// Clone returns a deep copy so snapshots never share slices with the live session
func (cv *CvData) Clone() *CvData {
	if cv == nil {
		return nil
	}
	out := *cv
	out.Skills = append([]string{}, cv.Skills...)
	out.Education = append([]Education{}, cv.Education...)
	out.Experience = make([]Experience, len(cv.Experience))
	for i, exp := range cv.Experience {
		exp.Responsibilities = append(FlexibleStringSlice{}, exp.Responsibilities...)
		out.Experience[i] = exp
	}
	return &out
}
