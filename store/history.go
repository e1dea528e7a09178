package store

// History is one persisted resolution request.
type History struct {
	ID        int64
	UID       string
	RequestID string
	Timex     string
	// ReferenceTs is the reference instant in unix seconds.
	ReferenceTs int64
	Timezone    string
	Policy      string
	Candidates  int32
	ErrorCode   string
	// Payload is the JSON encoded record list.
	Payload   string
	CreatedTs int64
}

type FindHistory struct {
	UID       *string
	Timex     *string
	ErrorCode *string
	// Limit of zero means no limit.
	Limit  int
	Offset int
}

type DeleteHistory struct {
	// CreatedBefore removes entries created strictly before this unix time.
	CreatedBefore int64
}
