package events

// Statement is a value-line claim with labels for both ends of the line.
type Statement struct {
	Text  string `json:"text" validate:"required"`
	Left  string `json:"l"`
	Right string `json:"r"`
}

// ThemeSet pairs an open prompt with a value-line statement under one theme.
type ThemeSet struct {
	Prompt    string    `json:"prompt" validate:"required"`
	Statement Statement `json:"stmt"`
	Theme     string    `json:"theme"`
}

type CheckinItem struct {
	Text     string `json:"text" validate:"required"`
	Icon     string `json:"icon"`
	Category string `json:"cat"`
}
