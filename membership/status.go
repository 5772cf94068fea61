package membership

type Status int

const (
	StatusActive Status = iota + 1
	StatusInactive
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	default:
		return ""
	}
}
