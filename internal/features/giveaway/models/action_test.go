package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryActionRoundTrip(t *testing.T) {
	for _, kind := range []ActionKind{ActionEnter, ActionLeave, ActionEnd, ActionReroll} {
		action := EntryAction{Kind: kind, GiveawayID: "1700000000000-abcd1234"}

		parsed, ok := ParseEntryAction(action.CustomID())
		assert.True(t, ok)
		assert.Equal(t, action, parsed)
	}
}

func TestParseEntryActionRejectsForeignIDs(t *testing.T) {
	cases := []string{
		"",
		"giveaway_",
		"giveaway_enter_",
		"giveaway_explode_123",
		"poll_vote_123",
	}
	for _, customID := range cases {
		_, ok := ParseEntryAction(customID)
		assert.False(t, ok, "customID %q should not parse", customID)
	}
}
