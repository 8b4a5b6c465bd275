package types

import (
	"encoding/json"
	"time"
)

// ActionType identifies one entry in the closed action vocabulary the
// controller prompt advertises to the model.
type ActionType string

const (
	ActionSetTimer     ActionType = "SET_TIMER"
	ActionStopTimer    ActionType = "STOP_TIMER"
	ActionPauseTimer   ActionType = "PAUSE_TIMER"
	ActionNavigate     ActionType = "NAVIGATE"
	ActionAddGoal      ActionType = "ADD_GOAL"
	ActionOpenResource ActionType = "OPEN_RESOURCE"
)

// Views the NAVIGATE action may target.
var navigableViews = map[string]bool{
	"dashboard": true,
	"timer":     true,
	"goals":     true,
	"courses":   true,
	"notes":     true,
	"groups":    true,
}

// Action is a validated instruction the model may request be applied to
// application state. Only the fields relevant to the Type are set.
type Action struct {
	Type ActionType `json:"type"`

	// SET_TIMER
	Minutes float64 `json:"minutes,omitempty"`

	// NAVIGATE
	View     string `json:"view,omitempty"`
	CourseID string `json:"courseId,omitempty"`

	// ADD_GOAL
	Title string `json:"title,omitempty"`
	Date  string `json:"date,omitempty"` // YYYY-MM-DD
	Plan  string `json:"plan,omitempty"`

	// OPEN_RESOURCE
	Resource   string `json:"resource,omitempty"`
	ModuleName string `json:"moduleName,omitempty"`
}

// rawAction mirrors the loose shape models emit before validation.
type rawAction struct {
	Type       string   `json:"type"`
	Minutes    *float64 `json:"minutes"`
	View       string   `json:"view"`
	CourseID   string   `json:"courseId"`
	Title      string   `json:"title"`
	Date       string   `json:"date"`
	Plan       string   `json:"plan"`
	Resource   string   `json:"resource"`
	ModuleName string   `json:"moduleName"`
}

// DecodeAction validates a raw action payload against the vocabulary.
// It returns (nil, false) for null/absent payloads and for any shape outside
// the vocabulary; a malformed action never fails the surrounding reply.
func DecodeAction(raw json.RawMessage) (*Action, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, true
	}

	var ra rawAction
	if err := json.Unmarshal(raw, &ra); err != nil {
		return nil, false
	}

	switch ActionType(ra.Type) {
	case ActionSetTimer:
		if ra.Minutes == nil || *ra.Minutes <= 0 {
			return nil, false
		}
		return &Action{Type: ActionSetTimer, Minutes: *ra.Minutes}, true

	case ActionStopTimer:
		return &Action{Type: ActionStopTimer}, true

	case ActionPauseTimer:
		return &Action{Type: ActionPauseTimer}, true

	case ActionNavigate:
		if !navigableViews[ra.View] {
			return nil, false
		}
		return &Action{Type: ActionNavigate, View: ra.View, CourseID: ra.CourseID}, true

	case ActionAddGoal:
		if ra.Title == "" {
			return nil, false
		}
		if _, err := time.Parse("2006-01-02", ra.Date); err != nil {
			return nil, false
		}
		return &Action{Type: ActionAddGoal, Title: ra.Title, Date: ra.Date, Plan: ra.Plan}, true

	case ActionOpenResource:
		if ra.Resource != "notes" || ra.ModuleName == "" {
			return nil, false
		}
		return &Action{Type: ActionOpenResource, Resource: ra.Resource, ModuleName: ra.ModuleName}, true
	}

	return nil, false
}
