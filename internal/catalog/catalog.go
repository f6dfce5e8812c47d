// Package catalog holds the built-in reference data: the Likert scale, the
// default question bank and the career outcomes per stream.
package catalog

import (
	"slices"

	"guidely-quiz-service/internal/domain"
)

// Options is the answer scale shared by every question.
func Options() []domain.AnswerOption {
	return []domain.AnswerOption{
		{Label: "Strongly Disagree", Value: -2},
		{Label: "Disagree", Value: -1},
		{Label: "Neutral", Value: 0},
		{Label: "Agree", Value: 1},
		{Label: "Strongly Agree", Value: 2},
	}
}

// ValidOption reports whether v is on the answer scale.
func ValidOption(v int) bool {
	for _, o := range Options() {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Questions is the default aptitude question bank.
func Questions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Text: "I enjoy experimenting, building models, or doing science projects.", Weights: map[domain.Category]int{domain.Science: 2, domain.Vocational: 1}},
		{ID: "q2", Text: "I like analyzing data, numbers, or business news.", Weights: map[domain.Category]int{domain.Commerce: 2, domain.Science: 1}},
		{ID: "q3", Text: "I express myself through writing, art, music, or public speaking.", Weights: map[domain.Category]int{domain.Arts: 2}},
		{ID: "q4", Text: "I prefer hands-on learning: workshops, labs, or practical tasks.", Weights: map[domain.Category]int{domain.Vocational: 2, domain.Science: 1}},
		{ID: "q5", Text: "I am curious about how the world works (physics, biology, tech).", Weights: map[domain.Category]int{domain.Science: 2}},
		{ID: "q6", Text: "I like organizing events, negotiating, or selling ideas/products.", Weights: map[domain.Category]int{domain.Commerce: 2, domain.Arts: 1}},
		{ID: "q7", Text: "I follow current affairs, social issues, or enjoy humanities subjects.", Weights: map[domain.Category]int{domain.Arts: 2}},
		{ID: "q8", Text: "I enjoy repairing gadgets, carpentry, cooking, or design tools.", Weights: map[domain.Category]int{domain.Vocational: 2, domain.Arts: 1}},
		{ID: "q9", Text: "I aim for competitive exams like JEE/NEET or research careers.", Weights: map[domain.Category]int{domain.Science: 2}},
		{ID: "q10", Text: "I want to run a business or work in finance/marketing.", Weights: map[domain.Category]int{domain.Commerce: 2}},
		{ID: "q11", Text: "I want a job-focused path with quicker entry into the workforce.", Weights: map[domain.Category]int{domain.Vocational: 2, domain.Commerce: 1}},
		{ID: "q12", Text: "I like collaborating with people and communicating ideas.", Weights: map[domain.Category]int{domain.Arts: 1, domain.Commerce: 1}},
	}
}

var careerMaps = []domain.CareerMap{
	{
		Stream:           domain.Science,
		Title:            "Science → Tech/Health/Research",
		Industries:       []string{"Engineering", "Healthcare", "Data & AI"},
		GovtExams:        []string{"JEE", "NEET", "ISRO/DRDO Apprentices"},
		PrivateJobs:      []string{"Software Developer", "Lab Technician", "Data Analyst"},
		HigherStudies:    []string{"B.Tech", "MBBS/BDS", "BSc + MSc/PhD"},
		Entrepreneurship: []string{"Tech Startup", "EdTech", "Health Services"},
	},
	{
		Stream:           domain.Commerce,
		Title:            "Commerce → Business/Finance",
		Industries:       []string{"Banking", "Finance", "Marketing"},
		GovtExams:        []string{"SBI/IBPS", "SSC CGL", "UPSC Commerce"},
		PrivateJobs:      []string{"Accountant", "Business Analyst", "Marketing Exec"},
		HigherStudies:    []string{"B.Com/BBA", "CA/CS/CMA", "MBA"},
		Entrepreneurship: []string{"Retail", "Digital Marketing", "SMEs"},
	},
	{
		Stream:           domain.Arts,
		Title:            "Arts → Social/Media/Public Service",
		Industries:       []string{"Media", "Education", "Public Policy"},
		GovtExams:        []string{"UPSC", "State PSC", "SSC CGL"},
		PrivateJobs:      []string{"Journalist", "Content Designer", "Teacher"},
		HigherStudies:    []string{"BA", "MA", "B.Ed/M.Ed"},
		Entrepreneurship: []string{"Content Studio", "NGO", "Design Services"},
	},
	{
		Stream:           domain.Vocational,
		Title:            "Vocational → Skilled Trades/Design",
		Industries:       []string{"Hospitality", "Manufacturing", "Design"},
		GovtExams:        []string{"Railways Apprentice", "PSUs Technician"},
		PrivateJobs:      []string{"Chef", "Electrician", "UX/Graphic Assistant"},
		HigherStudies:    []string{"Diploma", "B.Voc", "Specialized Certs"},
		Entrepreneurship: []string{"Catering", "Repair Services", "Studios"},
	},
}

// CareerMaps returns the outcome map of every stream in declared order. The
// result is a deep copy; callers may modify it freely.
func CareerMaps() []domain.CareerMap {
	out := make([]domain.CareerMap, len(careerMaps))
	for i, cm := range careerMaps {
		out[i] = cloneCareerMap(cm)
	}
	return out
}

// CareerMapFor returns the outcome map for one stream.
func CareerMapFor(c domain.Category) (domain.CareerMap, bool) {
	for _, cm := range careerMaps {
		if cm.Stream == c {
			return cloneCareerMap(cm), true
		}
	}
	return domain.CareerMap{}, false
}

func cloneCareerMap(cm domain.CareerMap) domain.CareerMap {
	cm.Industries = slices.Clone(cm.Industries)
	cm.GovtExams = slices.Clone(cm.GovtExams)
	cm.PrivateJobs = slices.Clone(cm.PrivateJobs)
	cm.HigherStudies = slices.Clone(cm.HigherStudies)
	cm.Entrepreneurship = slices.Clone(cm.Entrepreneurship)
	return cm
}
