package comm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/nats-io/nats.go"
)

// NATSScheme is the endpoint scheme of the NATS transport. The subject
// follows it: nats://credex.alice
const NATSScheme = "nats"

// Subject returns the NATS subject of the endpoint.
func Subject(endpoint string) string {
	return strings.TrimPrefix(endpoint, NATSScheme+"://")
}

// DialNATS connects with the reconnect handlers logging through glog.
func DialNATS(url, name string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			glog.Warningln("NATS disconnected:", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			glog.Infoln("NATS reconnected:", nc.ConnectedUrl())
		}),
	)
}

// NATSSender publishes the wire envelopes to the endpoint subjects.
type NATSSender struct {
	Conn *nats.Conn
}

func (s *NATSSender) Deliver(_ context.Context, endpoint string, w *Wire) (err error) {
	defer err2.Handle(&err, "nats deliver %s", endpoint)

	try.To(s.Conn.Publish(Subject(endpoint), try.To1(json.Marshal(w))))
	return nil
}

// NATSReceiver subscribes the subject of our endpoint.
type NATSReceiver struct {
	Conn *nats.Conn

	sub *nats.Subscription
}

// Listen passes every message of the subject to r until Close. ctx is the
// base context of the receive calls.
func (n *NATSReceiver) Listen(ctx context.Context, endpoint string, r Receiver) (err error) {
	defer err2.Handle(&err, "nats listen %s", endpoint)

	n.sub = try.To1(n.Conn.Subscribe(Subject(endpoint), func(msg *nats.Msg) {
		if err := Unwrap(ctx, r, msg.Data); err != nil {
			glog.Errorln("nats receive:", err)
		}
	}))
	glog.V(1).Infoln("listening NATS subject", n.sub.Subject)
	return nil
}

func (n *NATSReceiver) Close() error {
	if n.sub == nil {
		return nil
	}
	return n.sub.Unsubscribe()
}
