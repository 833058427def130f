package service

const (
	// MinDurationMinutes and MaxDurationMinutes bound giveaway duration
	// (one minute to one week).
	MinDurationMinutes = 1
	MaxDurationMinutes = 10080

	MinWinners = 1
	MaxWinners = 20

	// ticketScale converts a fractional activity score into an integer
	// ticket count: tickets = ceil(score * ticketScale).
	ticketScale = 10
)
