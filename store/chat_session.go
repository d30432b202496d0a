package store

// ChatSession is a persisted conversation thread. The ID is assigned at
// creation time and never changes; a session belongs to exactly one user.
type ChatSession struct {
	ID        string
	UserID    string
	Title     string
	CreatedTs int64
	UpdatedTs int64
}

type FindChatSession struct {
	ID     *string
	UserID *string
}

type UpdateChatSession struct {
	ID        string
	Title     *string
	UpdatedTs *int64
}

type DeleteChatSession struct {
	ID string
}
