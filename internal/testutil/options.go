package testutil

import "github.com/zjrosen/admingroup/internal/groups/domain"

// groupData holds everything needed to insert a group and its codes.
type groupData struct {
	name       string
	courseID   domain.ID
	title      string
	isGroupSet bool
	setName    string
	available  bool
	batchUIDs  []string
}

// DefaultCourse is the course groups are created in unless overridden.
const DefaultCourse = domain.ID(3)

func defaultGroup(name string) groupData {
	return groupData{
		name:      name,
		courseID:  DefaultCourse,
		title:     name, // Default title is the name
		available: true,
	}
}

// GroupOption configures a group during builder setup.
type GroupOption func(*groupData)

// Title sets the group title.
func Title(title string) GroupOption {
	return func(g *groupData) { g.title = title }
}

// Course places the group in courseID.
func Course(courseID domain.ID) GroupOption {
	return func(g *groupData) { g.courseID = courseID }
}

// MemberOf makes the group a member of the named group set. The set must
// be added to the builder before this group.
func MemberOf(setName string) GroupOption {
	return func(g *groupData) { g.setName = setName }
}

// Unavailable hides the group from students.
func Unavailable() GroupOption {
	return func(g *groupData) { g.available = false }
}

// BatchUIDs stores one code per value, in order. Values are written as
// given, without uniqueness checks.
func BatchUIDs(uids ...string) GroupOption {
	return func(g *groupData) { g.batchUIDs = append(g.batchUIDs, uids...) }
}
