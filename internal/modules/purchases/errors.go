package purchases

import (
	"errors"
	"fmt"
)

var (
	ErrCourseNotPublished = errors.New("course is not published")
	ErrSelfPurchase       = errors.New("instructors cannot purchase their own course")
)

// AlreadyPurchasedError reports the existing purchase's status so the caller
// can tell a pending checkout from an owned course.
type AlreadyPurchasedError struct {
	Status Status
}

func (e *AlreadyPurchasedError) Error() string {
	return fmt.Sprintf("an active purchase for this course already exists (status %s)", e.Status)
}

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid purchase status transition %s -> %s", e.From, e.To)
}
