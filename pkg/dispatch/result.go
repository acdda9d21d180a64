package dispatch

import (
	"fmt"
	"strings"
)

const (
	auditSuccessFormat = "Zalo Bot: Đã gửi thông báo thành công tới %d người."
	auditFailure       = "Zalo Bot: Gửi thông báo thất bại."
)

// Failure is one recipient that could not be reached. Message is the bot
// API's text, unmodified.
type Failure struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

func (f Failure) String() string {
	return f.Recipient + ": " + f.Message
}

// Result is the outcome of one batch.
type Result struct {
	BatchID      string    `json:"batch_id"`
	SuccessCount int       `json:"success_count"`
	Failures     []Failure `json:"failures,omitempty"`
}

// Attempted is the number of recipients a send was tried for.
func (r Result) Attempted() int {
	return r.SuccessCount + len(r.Failures)
}

// OK reports whether at least one recipient received the message.
func (r Result) OK() bool {
	return r.SuccessCount > 0
}

// ErrorAnnex joins the failures as "id: message, id2: message2".
func (r Result) ErrorAnnex() string {
	parts := make([]string, 0, len(r.Failures))
	for _, failure := range r.Failures {
		parts = append(parts, failure.String())
	}
	return strings.Join(parts, ", ")
}

// Err returns a *PartialFailureError when any recipient failed, else nil.
func (r Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return &PartialFailureError{
		SuccessCount: r.SuccessCount,
		Failures:     append([]Failure(nil), r.Failures...),
	}
}

// AuditNote is the note appended to the order after the batch.
func (r Result) AuditNote() string {
	if r.OK() {
		return fmt.Sprintf(auditSuccessFormat, r.SuccessCount)
	}
	return auditFailure
}

// PartialFailureError lists recipients that failed in a batch. The batch
// still counts as delivered when SuccessCount is positive.
type PartialFailureError struct {
	SuccessCount int
	Failures     []Failure
}

func (e *PartialFailureError) Error() string {
	annex := Result{Failures: e.Failures}.ErrorAnnex()
	return fmt.Sprintf("dispatch: %d of %d recipients failed: %s", len(e.Failures), e.SuccessCount+len(e.Failures), annex)
}
