package port

import "context"

const (
	PostCreatedSubject      = "post.created"
	PostUpdatedSubject      = "post.updated"
	PostDeletedSubject      = "post.deleted"
	PostVotedSubject        = "post.voted"
	ContactSubmittedSubject = "contact.submitted"
)

// NewsSubject returns the subject of a news event for an edition,
// e.g. "news.en.created".
func NewsSubject(edition, action string) string {
	return "news." + edition + "." + action
}

// EventPublisher broadcasts domain events. Payloads are JSON encoded.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}
