// Package warden answers fire warden chat messages with canned tactical
// responses picked by keyword.
package warden

import (
	"errors"
	"strings"
)

// ErrEmptyMessage is returned for blank chat input.
var ErrEmptyMessage = errors.New("message is required")

// Reply kinds.
const (
	KindText = "text"
	KindPlan = "plan"
)

// Impact summarises the expected effect of a plan.
type Impact struct {
	Containment        string `json:"containment"`
	ETA                string `json:"eta"`
	SuccessProbability string `json:"successProbability"`
}

// Plan is a proposed set of actions.
type Plan struct {
	Title   string   `json:"title"`
	Actions []string `json:"actions"`
	Impact  Impact   `json:"impact"`
}

// Reply is the chat response body.
type Reply struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Plan    *Plan  `json:"plan,omitempty"`
}

type rule struct {
	keywords []string
	reply    func() Reply
}

// Rules are checked in order; the first keyword hit wins.
var rules = []rule{
	{[]string{"status", "situation"}, func() Reply {
		return Reply{Type: KindText, Content: "Current situation analysis: We have 7 active fires across multiple sectors. " +
			"Fire F-2 in Sector C is the primary concern due to increasing wind speeds. " +
			"I recommend deploying additional drones to the northeast perimeter."}
	}},
	{[]string{"strategy", "plan"}, func() Reply {
		return Reply{
			Type:    KindPlan,
			Content: "I've analyzed the situation and generated a tactical plan:",
			Plan: &Plan{
				Title: "Sector C Reinforcement Strategy",
				Actions: []string{
					"Redeploy Drones D-15, D-18, D-22, D-24 from Sector A to Sector C",
					"Position drones at coordinates: N42.5°, N43.1°, N43.7°, N44.2°",
					"Increase water drop frequency to every 90 seconds",
					"Establish firebreak along northeastern perimeter",
				},
				Impact: Impact{Containment: "40% faster containment", ETA: "2.5 hours", SuccessProbability: "87%"},
			},
		}
	}},
	{[]string{"drone"}, func() Reply {
		return Reply{Type: KindText, Content: "Drone fleet status: 24 of 30 drones are currently active. " +
			"Average battery level is 78%, average water capacity is 52%. " +
			"Drones D-06 and D-04 will need to return for refueling within the next 15 minutes."}
	}},
	{[]string{"weather", "wind"}, func() Reply {
		return Reply{Type: KindText, Content: "Current weather conditions: Wind speed is 12 mph from the northeast. " +
			"Forecast shows winds may increase to 18 mph within the next 2 hours. " +
			"Temperature is 85°F with 15% humidity. These conditions favor rapid fire spread."}
	}},
}

const fallback = "I understand your query. Based on current fire patterns and resource availability, " +
	"I can provide strategic recommendations. Would you like me to analyze a specific sector " +
	"or generate a comprehensive tactical plan?"

// Warden is the chat collaborator behind the chat endpoint.
type Warden struct{}

// New returns a Warden.
func New() *Warden { return &Warden{} }

// Reply answers message. Blank input returns ErrEmptyMessage.
func (w *Warden) Reply(message string) (Reply, error) {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return Reply{}, ErrEmptyMessage
	}
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(msg, k) {
				return r.reply(), nil
			}
		}
	}
	return Reply{Type: KindText, Content: fallback}, nil
}
