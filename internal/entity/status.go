package entity

// Status is the lifecycle state carried by every persisted record. The set is
// closed; new states are added here, never at runtime.
type Status int16

const (
	StatusActive   Status = 1
	StatusPending  Status = 2
	StatusDisabled Status = 3
	StatusDeleted  Status = 4
)

var statusNames = map[Status]string{
	StatusActive:   "active",
	StatusPending:  "pending",
	StatusDisabled: "disabled",
	StatusDeleted:  "deleted",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}
