package tracing

// Span attribute keys.
const (
	AttrOperationID = "op.id"
	AttrGroupID     = "group.id"
	AttrCourseID    = "group.course_id"
	AttrGroupSet    = "group.is_set"
	AttrBatchUID    = "group.batch_uid"
	AttrPolicy      = "persist.policy"
	AttrDeleteOrder = "delete.order"
	AttrMemberCount = "delete.member_count"
	AttrResultCount = "result.count"
	AttrErrorType   = "error.type"
)

// Span names.
const (
	SpanPersist      = "registry.persist"
	SpanDelete       = "registry.delete"
	SpanAddToSet     = "registry.add_to_set"
	SpanLoadByID     = "registry.load_by_id"
	SpanLoadByUID    = "registry.load_by_batch_uid"
	SpanLoadByCourse = "registry.load_by_course"
)

// Persist pipeline stages, recorded as span events in order.
const (
	EventValidated      = "persist.validated"
	EventGroupPersisted = "persist.group_persisted"
	EventCodePersisted  = "persist.code_persisted"
	EventVerified       = "persist.verified"
	EventConflict       = "persist.conflict"

	EventMembersLoaded = "delete.members_loaded"
	EventKeysDeleted   = "delete.keys_deleted"
	EventGroupsDeleted = "delete.groups_deleted"
)
