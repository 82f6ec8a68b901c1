package project

// Project is a simulation scenario stored on the platform. It is a snapshot of
// the platform's reply and is never mutated locally.
type Project struct {
	FileName     string        `json:"fileName"`
	Owner        string        `json:"owner,omitempty"`
	Language     string        `json:"language,omitempty"`
	MapSizeM     int           `json:"mapSizeM,omitempty"`
	Stakeholders []Stakeholder `json:"stakeholders,omitempty"`
}

// StakeholderCivilian is the stakeholder type added to every new project.
const StakeholderCivilian = "CIVILIAN"

// Stakeholder is a role within a project.
type Stakeholder struct {
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`
	Playable bool   `json:"playable"`
}

// JoinReply is the platform's answer to joining a slot as editor.
type JoinReply struct {
	ServerToken string `json:"serverToken"`
	Client      struct {
		ClientToken string `json:"clientToken"`
	} `json:"client"`
}
