package errorx

type Code int

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009

	// Vote codes
	InvalidOption          Code = 200001
	FixtureClosed          Code = 200002
	AuthenticationRequired Code = 200003
	StorageUnavailable     Code = 200004
	VoteChangeNotAllowed   Code = 200005

	// Category codes
	ReservedCategory Code = 300001
)
