package domain

type CrimeType string

const (
	CrimeAll                 CrimeType = "All"
	CrimeTheft               CrimeType = "Theft"
	CrimeBreakingEntering    CrimeType = "Breaking & Entering"
	CrimeHarassment          CrimeType = "Harassment"
	CrimeAssault             CrimeType = "Assault"
	CrimeAntisocialBehaviour CrimeType = "Antisocial Behaviour"
	CrimeVandalism           CrimeType = "Vandalism"
	CrimeAnimalAbuse         CrimeType = "Animal Abuse"
	CrimeSuspiciousBehaviour CrimeType = "Suspicious Behaviour"
)

var crimeEmoji = map[CrimeType]string{
	CrimeTheft:               "💰",
	CrimeBreakingEntering:    "🏠",
	CrimeHarassment:          "🗣️",
	CrimeAssault:             "👊",
	CrimeAntisocialBehaviour: "🤬",
	CrimeVandalism:           "🧱",
	CrimeAnimalAbuse:         "🐾",
	CrimeSuspiciousBehaviour: "🕵️",
}

// CrimeTypes returns the reportable categories in menu order.
func CrimeTypes() []CrimeType {
	return []CrimeType{
		CrimeTheft,
		CrimeBreakingEntering,
		CrimeHarassment,
		CrimeAssault,
		CrimeAntisocialBehaviour,
		CrimeVandalism,
		CrimeAnimalAbuse,
		CrimeSuspiciousBehaviour,
	}
}

// Valid reports whether t is a reportable category. CrimeAll is a filter value only.
func (t CrimeType) Valid() bool {
	_, ok := crimeEmoji[t]
	return ok
}

func (t CrimeType) Emoji() string {
	if s, ok := crimeEmoji[t]; ok {
		return s
	}
	return "⚠️"
}

type CrimeTypeInfo struct {
	Type  CrimeType `json:"type"`
	Emoji string    `json:"emoji"`
}
