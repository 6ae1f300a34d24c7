package testutil

// WithCourseTestData adds a small course layout.
//
// Structure (course 3 unless noted):
//
//	set     (group set, sis#set)
//	  ├── alpha (sis#alpha)
//	  └── beta  (sis#beta)
//	gamma   (plain token "gamma")
//	delta   (course 4, sis#alpha)
func (b *Builder) WithCourseTestData() *Builder {
	return b.
		WithGroupSet("set", Title("Project teams"), BatchUIDs("sis#set")).
		WithGroup("alpha", Title("Team Alpha"), MemberOf("set"), BatchUIDs("sis#alpha")).
		WithGroup("beta", Title("Team Beta"), MemberOf("set"), BatchUIDs("sis#beta")).
		WithGroup("gamma", Title("Loose group"), BatchUIDs("gamma")).
		WithGroup("delta", Title("Other course"), Course(4), BatchUIDs("sis#alpha"))
}
