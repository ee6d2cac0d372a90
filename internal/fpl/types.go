package fpl

import (
	"encoding/json"
	"fmt"
)

// Bootstrap is the subset of /bootstrap-static/ the importer needs.
type Bootstrap struct {
	Elements     []Element
	Teams        []Team
	ElementTypes []ElementType
}

// Element is a player as listed in the bootstrap catalog.
type Element struct {
	ID          int    `json:"id"`
	WebName     string `json:"web_name"`
	Team        int    `json:"team"`
	ElementType int    `json:"element_type"`
}

type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ElementType is a position such as Goalkeeper or Forward.
type ElementType struct {
	ID           int    `json:"id"`
	SingularName string `json:"singular_name"`
}

// ElementSummary is the subset of /element-summary/{id}/ the importer needs.
type ElementSummary struct {
	History []HistoryEntry
}

// HistoryEntry is one gameweek of a player's season.
type HistoryEntry struct {
	Round         int
	Minutes       int
	GoalsScored   int
	Assists       int
	CleanSheets   int
	GoalsConceded int
	YellowCards   int
	RedCards      int
	TotalPoints   int
}

func (b *Bootstrap) UnmarshalJSON(data []byte) error {
	var raw struct {
		Elements     *[]Element     `json:"elements"`
		Teams        *[]Team        `json:"teams"`
		ElementTypes *[]ElementType `json:"element_types"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Elements == nil:
		return missingField("elements")
	case raw.Teams == nil:
		return missingField("teams")
	case raw.ElementTypes == nil:
		return missingField("element_types")
	}
	b.Elements, b.Teams, b.ElementTypes = *raw.Elements, *raw.Teams, *raw.ElementTypes
	return nil
}

// UnmarshalJSON requires the fields the importer keys on.
func (e *Element) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          *int    `json:"id"`
		WebName     *string `json:"web_name"`
		Team        *int    `json:"team"`
		ElementType *int    `json:"element_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.ID == nil:
		return missingField("elements.id")
	case raw.WebName == nil:
		return missingField("elements.web_name")
	case raw.Team == nil:
		return missingField("elements.team")
	case raw.ElementType == nil:
		return missingField("elements.element_type")
	}
	*e = Element{ID: *raw.ID, WebName: *raw.WebName, Team: *raw.Team, ElementType: *raw.ElementType}
	return nil
}

func (t *Team) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   *int    `json:"id"`
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.ID == nil:
		return missingField("teams.id")
	case raw.Name == nil:
		return missingField("teams.name")
	}
	*t = Team{ID: *raw.ID, Name: *raw.Name}
	return nil
}

func (et *ElementType) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           *int    `json:"id"`
		SingularName *string `json:"singular_name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.ID == nil:
		return missingField("element_types.id")
	case raw.SingularName == nil:
		return missingField("element_types.singular_name")
	}
	*et = ElementType{ID: *raw.ID, SingularName: *raw.SingularName}
	return nil
}

// UnmarshalJSON treats an absent history as an empty one.
func (s *ElementSummary) UnmarshalJSON(data []byte) error {
	var raw struct {
		History []HistoryEntry `json:"history"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.History = raw.History
	if s.History == nil {
		s.History = []HistoryEntry{}
	}
	return nil
}

// UnmarshalJSON requires every stat field to be present.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Round         *int `json:"round"`
		Minutes       *int `json:"minutes"`
		GoalsScored   *int `json:"goals_scored"`
		Assists       *int `json:"assists"`
		CleanSheets   *int `json:"clean_sheets"`
		GoalsConceded *int `json:"goals_conceded"`
		YellowCards   *int `json:"yellow_cards"`
		RedCards      *int `json:"red_cards"`
		TotalPoints   *int `json:"total_points"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := []struct {
		name string
		src  *int
		dst  *int
	}{
		{"round", raw.Round, &h.Round},
		{"minutes", raw.Minutes, &h.Minutes},
		{"goals_scored", raw.GoalsScored, &h.GoalsScored},
		{"assists", raw.Assists, &h.Assists},
		{"clean_sheets", raw.CleanSheets, &h.CleanSheets},
		{"goals_conceded", raw.GoalsConceded, &h.GoalsConceded},
		{"yellow_cards", raw.YellowCards, &h.YellowCards},
		{"red_cards", raw.RedCards, &h.RedCards},
		{"total_points", raw.TotalPoints, &h.TotalPoints},
	}
	for _, f := range fields {
		if f.src == nil {
			return missingField("history." + f.name)
		}
		*f.dst = *f.src
	}
	return nil
}

func missingField(name string) error {
	return fmt.Errorf("%w: missing field %q", ErrMalformedResponse, name)
}
