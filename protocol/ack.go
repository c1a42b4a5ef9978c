package protocol

import "fmt"

// AckCode is an MPD protocol error code.
type AckCode int

// Error codes from the MPD acknowledgement taxonomy. Only the subset the
// proxy can produce is defined.
const (
	AckNotList    AckCode = 1
	AckArg        AckCode = 2
	AckPermission AckCode = 4
	AckUnknown    AckCode = 5
	AckNoExist    AckCode = 50
	AckSystem     AckCode = 52
)

// Ack is a structured protocol error: code, the 0-based position of the
// failing command within a command list (0 outside one), the failing
// verb and a message. Ack implements error so backend code can return it
// directly and the session can recover it with errors.As.
type Ack struct {
	Code    AckCode
	Index   int
	Command string
	Message string
}

// NewAck builds an ack with a formatted message. Index and Command are
// filled in by the session at reporting time when left zero.
func NewAck(code AckCode, format string, args ...any) *Ack {
	return &Ack{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (a *Ack) Error() string {
	return a.String()
}

// String renders the ack in wire format, without the trailing newline.
func (a *Ack) String() string {
	return fmt.Sprintf("ACK [%d@%d] {%s} %s", a.Code, a.Index, a.Command, a.Message)
}
