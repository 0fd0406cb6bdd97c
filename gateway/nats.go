package gateway

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"
	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/types"
)

const DefaultSubject = "intake.applications.submit"

// NATSGateway submits through a single NATS request/reply exchange. The
// responder answers with a Reply; a missing success flag counts as failure.
type NATSGateway struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

func NewNATSGateway(conn *nats.Conn, subject string, timeout time.Duration) *NATSGateway {
	if subject == "" {
		subject = DefaultSubject
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &NATSGateway{conn: conn, subject: subject, timeout: timeout}
}

func (g *NATSGateway) Submit(ctx context.Context, app form.Application) types.SubmissionOutcome {
	body, err := sonic.Marshal(app)
	if err != nil {
		return types.Failed("could not encode application: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	msg, err := g.conn.RequestWithContext(ctx, g.subject, body)
	if err != nil {
		return types.Failed("could not reach the application service: %v", err)
	}

	var reply Reply
	if err := sonic.Unmarshal(msg.Data, &reply); err != nil {
		return types.Failed("unreadable reply from the application service: %v", err)
	}
	if reply.Success != nil && *reply.Success {
		return types.Succeeded()
	}
	if text := reply.text(); text != "" {
		return types.SubmissionOutcome{Success: false, Error: text}
	}
	return types.Failed("submission rejected")
}

var _ Gateway = (*NATSGateway)(nil)
