package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	Subject      string
	SlotID       *int
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
