package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

type AssignmentEmail struct {
	To       string
	FullName string

	TaskID      int64
	Title       string
	Description string
	DueDate     *time.Time
}

type Client interface {
	SendAssignment(ctx context.Context, m AssignmentEmail) error
}

// RejectedError is returned when the mail provider refused the message
// itself. Sending the same message again will be refused again.
type RejectedError struct {
	StatusCode int
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("mail rejected (http %d)", e.StatusCode)
}

func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}
