package models

import "strings"

// ActionKind tags an interaction against one giveaway.
type ActionKind string

const (
	ActionEnter  ActionKind = "enter"
	ActionLeave  ActionKind = "leave"
	ActionEnd    ActionKind = "end"
	ActionReroll ActionKind = "reroll"
)

// EntryAction is the typed descriptor constructed once at the chat-platform
// boundary; the core never parses interaction identifiers itself.
type EntryAction struct {
	Kind       ActionKind
	GiveawayID string
}

const actionPrefix = "giveaway_"

// CustomID renders the action as a component custom ID.
func (a EntryAction) CustomID() string {
	return actionPrefix + string(a.Kind) + "_" + a.GiveawayID
}

// ParseEntryAction decodes a component custom ID. The second return value is
// false for custom IDs that do not belong to the giveaway feature.
func ParseEntryAction(customID string) (EntryAction, bool) {
	rest, ok := strings.CutPrefix(customID, actionPrefix)
	if !ok {
		return EntryAction{}, false
	}

	kind, id, ok := strings.Cut(rest, "_")
	if !ok || id == "" {
		return EntryAction{}, false
	}

	switch ActionKind(kind) {
	case ActionEnter, ActionLeave, ActionEnd, ActionReroll:
		return EntryAction{Kind: ActionKind(kind), GiveawayID: id}, true
	}
	return EntryAction{}, false
}
