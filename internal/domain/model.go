package domain

import "time"

// User is an account able to log in and own posts.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is the verified subject of a bearer token.
type Identity struct {
	UserID   string
	Username string
}

type Post struct {
	ID        string
	Title     string
	Content   string
	OwnerID   string
	Likes     int64
	Dislikes  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Counter names one of the vote counters of a Post.
type Counter string

const (
	CounterLikes    Counter = "likes"
	CounterDislikes Counter = "dislikes"
)

func (c Counter) Valid() bool {
	return c == CounterLikes || c == CounterDislikes
}

// Image references an object kept in the image storage.
type Image struct {
	URL         string
	Key         string
	ContentType string
	Size        int64
}

// ImageUpload is an image received from a client, before it is stored.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type NewsItem struct {
	ID          string
	Title       string
	Description string
	Image       *Image
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Attachment is a file sent along with a contact request.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ContactRequest is a submission of the public contact form.
type ContactRequest struct {
	Name          string
	Email         string
	Phone         string
	FormatClarity string
	FlowIdea      string
	DeliveryDate  string
	Attachments   []Attachment
}
