package registry

import "github.com/zjrosen/admingroup/internal/groups/domain"

// GroupEvent is published after a committed change to a group.
type GroupEvent struct {
	GroupID     domain.ID
	CourseID    domain.ID
	IsGroupSet  bool
	BatchUID    string // empty for deletes
	OperationID string
}
