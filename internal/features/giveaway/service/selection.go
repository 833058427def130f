package service

import (
	"math"
	"math/rand"
)

type ticketEntry struct {
	userID  string
	tickets int
}

// SelectWinners draws up to count unique winners from entrants, with each
// entrant's odds proportional to scoreFor(userID). Scores are converted to
// integer ticket counts (ceil(score*10), minimum one ticket); one ticket is
// drawn uniformly per round and all of the winner's tickets leave the pool,
// which rules out duplicate winners while keeping the remaining draws
// correctly normalized over the remaining entrants. The returned slice is in
// draw order and is empty when entrants is empty.
func SelectWinners(entrants []string, scoreFor func(userID string) float64, count int) []string {
	winners := make([]string, 0, count)
	if len(entrants) == 0 || count <= 0 {
		return winners
	}

	pool := make([]ticketEntry, 0, len(entrants))
	for _, userID := range entrants {
		tickets := int(math.Ceil(scoreFor(userID) * ticketScale))
		if tickets < 1 {
			tickets = 1
		}
		pool = append(pool, ticketEntry{userID: userID, tickets: tickets})
	}

	won := make(map[string]bool, count)
	for len(winners) < count {
		totalTickets := 0
		for _, entry := range pool {
			if !won[entry.userID] {
				totalTickets += entry.tickets
			}
		}
		if totalTickets == 0 {
			break
		}

		winningTicket := rand.Intn(totalTickets) + 1
		current := 0
		for _, entry := range pool {
			if won[entry.userID] {
				continue
			}
			current += entry.tickets
			if current >= winningTicket {
				winners = append(winners, entry.userID)
				won[entry.userID] = true
				break
			}
		}
	}

	return winners
}
