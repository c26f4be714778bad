package enrollment

import "time"

type Enrollment struct {
	ID        uint
	UserID    uint
	CourseID  uint
	OrderID   *uint
	CreatedAt time.Time
}

// EnrolledCourse is an enrollment joined with the course it grants.
type EnrolledCourse struct {
	ID         uint      `json:"id"`
	CourseID   uint      `json:"courseId"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Thumbnail  *string   `json:"thumbnail"`
	OrderID    *uint     `json:"orderId"`
	EnrolledAt time.Time `json:"enrolledAt"`
}
