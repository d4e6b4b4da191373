package shop

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusCancelled: true},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
