package dedupe

// SeenStore tracks identities that have already been reported.
// It is owned by a single poll loop and is not safe for concurrent use.
type SeenStore interface {
	HasSeen(id string) bool
	MarkSeen(id string)
	Len() int
}
