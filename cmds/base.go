/*
Package cmds holds the command implementations of the CLI. Every command
validates its arguments and writes its results to the given writer, so that
the commands can be used without cobra, e.g. in the tests.
*/
package cmds

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/findy-network/findy-credex/agent/logctx"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/lainio/err2/try"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid command, check arguments")

type Result interface {
	YAML() ([]byte, error)
}

type Command interface {
	Validate() error
	Exec(w io.Writer) (r Result, err error)
}

// Fprintln is fmt.Fprintln but it allows writer to be nil. Note! it throws an
// error.
func Fprintln(w io.Writer, a ...any) {
	if w != nil {
		try.To1(fmt.Fprintln(w, a...))
	}
}

// Fprintf is fmt.Fprintf but it allows writer to be nil. Note! it throws an
// error.
func Fprintf(w io.Writer, format string, a ...any) {
	if w != nil {
		try.To1(fmt.Fprintf(w, format, a...))
	}
}

// WriteYAML writes the result as a YAML document. Note! it throws an error.
func WriteYAML(w io.Writer, r Result) {
	if w != nil {
		try.To1(w.Write(try.To1(r.YAML())))
	}
}

// ValidateTime checks the HH:MM[:SS] time of the day the scheduler uses.
func ValidateTime(s string) error {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, s); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: time %q isn't HH:MM[:SS]", ErrInvalid, s)
}

// ValidateAutoAccept checks the policy name.
func ValidateAutoAccept(a data.AutoAccept) error {
	switch a {
	case data.AutoAcceptNever, data.AutoAcceptContentApproved, data.AutoAcceptAlways:
		return nil
	}
	return fmt.Errorf("%w: auto-accept %q", ErrInvalid, a)
}

// ParseFormats parses the comma separated format families. Empty string
// gives nil which enables all of them.
func ParseFormats(s string) (families []format.Family, err error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	for _, f := range strings.Split(s, ",") {
		family := format.Family(strings.TrimSpace(f))
		switch family {
		case format.FamilyIndy, format.FamilyLDProof, format.FamilySDJWT:
			families = append(families, family)
		default:
			return nil, fmt.Errorf("%w: format %q", ErrInvalid, family)
		}
	}
	return families, nil
}

// ParseLoggingArgs passes the glog arguments like: "-logtostderr=true -v=2"
func ParseLoggingArgs(s string) {
	args := make([]string, 1, 12)
	args[0] = os.Args[0]
	args = append(args, strings.Fields(s)...)
	orgArgs := os.Args
	os.Args = args
	flag.Parse()
	os.Args = orgArgs
}

// Logger builds the structured logger of the protocol processing. Unknown
// level names give the info level.
func Logger(w io.Writer, level string, pretty bool) zerolog.Logger {
	l, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		l = zerolog.InfoLevel
	}
	return logctx.New(w, l, pretty)
}

// Records is the YAML listing of exchange records.
type Records []RecordView

// RecordView is the printed summary of one record.
type RecordView struct {
	ID         string    `yaml:"id"`
	ThreadID   string    `yaml:"thread_id"`
	Connection string    `yaml:"connection_id,omitempty"`
	Version    string    `yaml:"version"`
	Role       string    `yaml:"role"`
	State      string    `yaml:"state"`
	Formats    []string  `yaml:"formats,omitempty"`
	Error      string    `yaml:"error,omitempty"`
	Updated    time.Time `yaml:"updated"`
}

func NewRecords(recs []*data.ExchangeRecord) Records {
	views := make(Records, 0, len(recs))
	for _, r := range recs {
		v := RecordView{
			ID:         r.ID,
			ThreadID:   r.ThreadID,
			Connection: r.ConnectionID,
			Version:    string(r.ProtocolVersion),
			Role:       string(r.Role),
			State:      r.State.String(),
			Error:      r.ErrorMessage,
			Updated:    r.UpdatedAt,
		}
		for _, b := range r.Bindings {
			v.Formats = append(v.Formats, b.Family)
		}
		views = append(views, v)
	}
	return views
}

func (r Records) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}
