package domain

type Option struct {
	ID   OptionID `json:"id"`
	Text string   `json:"text"`
}

type Question struct {
	ID       int      `json:"id"`
	Text     string   `json:"question_text"`
	Category string   `json:"category"`
	Options  []Option `json:"options"`
}
