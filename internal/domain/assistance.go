package domain

type AssistanceContact struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Number   string `json:"number"`
	Dial     string `json:"dial"`
}

func AssistanceContacts() []AssistanceContact {
	return []AssistanceContact{
		{Title: "General Emergency", Subtitle: "Call for police, ambulance, or fire", Number: "112", Dial: "tel:112"},
		{Title: "Emergency Services", Subtitle: "Standard Irish emergency line", Number: "999", Dial: "tel:999"},
		{Title: "Samaritans", Subtitle: "Free 24/7 mental health support", Number: "116 123", Dial: "tel:116123"},
		{Title: "Crime Victim Helpline", Subtitle: "Support for victims of crime", Number: "1800 77 88 88", Dial: "tel:1800778888"},
	}
}
