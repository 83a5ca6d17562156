package market

import "fmt"

// Direction is the side of a trade.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Sign returns +1 for long, -1 for short.
func (d Direction) Sign() int {
	if d == Short {
		return -1
	}
	return 1
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	}
	return "", fmt.Errorf("unknown direction %q (want long|short)", s)
}
