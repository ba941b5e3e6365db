/*
Package demo runs a credential exchange between two in-process agents. The
agents talk over the loopback transport and the controller steps of the
exchange are done by the command when the auto-accept policy leaves them.
*/
package demo

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/findy-network/findy-credex/agent/agency"
	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/cmds"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/exchange"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/indy"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/indy/memwallet"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/ldproof"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/sdjwt"
	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const (
	connectionID = "demo-connection"
	maxSteps     = 8
)

var ErrNotDone = errors.New("exchange didn't end")

type Cmd struct {
	Formats        string
	Version        string
	AutoAccept     string
	Connectionless bool
	SubjectName    string
}

var DefaultValues = Cmd{
	Formats:     "sdjwt,ldproof",
	Version:     string(data.V2),
	AutoAccept:  string(data.AutoAcceptAlways),
	SubjectName: "Alice",
}

func (c Cmd) Validate() error {
	families, err := cmds.ParseFormats(c.Formats)
	if err != nil {
		return err
	}
	if err := cmds.ValidateAutoAccept(data.AutoAccept(c.AutoAccept)); err != nil {
		return err
	}
	switch data.Version(c.Version) {
	case data.V2:
	case data.V1:
		if len(families) != 1 || families[0] != format.FamilyIndy {
			return fmt.Errorf("%w: version v1 carries indy only", cmds.ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: version %q", cmds.ErrInvalid, c.Version)
	}
	if c.SubjectName == "" {
		return errors.New("subject name cannot be empty")
	}
	return nil
}

// Exec runs the exchange and writes the final records of both agents.
func (c Cmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "demo")

	ctx := context.Background()
	families := try.To1(cmds.ParseFormats(c.Formats))
	if families == nil {
		families = []format.Family{format.FamilyIndy, format.FamilyLDProof, format.FamilySDJWT}
	}

	ledger := memwallet.NewLedger()
	credDefID := ledger.AddCredDef("DemoIssuerDID", "DemoIssuerDID:2:demo:1.0", "default")
	policy := data.AutoAccept(c.AutoAccept)
	issuer, holder := try.To2(agency.Pair(comm.NewLoopback(), connectionID,
		agency.Config{
			Name: "demo-issuer", AutoAccept: policy, Formats: families,
			Indy: indy.Config{Issuer: memwallet.New(ledger), Ledger: ledger},
		},
		agency.Config{
			Name: "demo-holder", AutoAccept: policy, Formats: families,
			Indy: indy.Config{Holder: memwallet.New(ledger), Ledger: ledger, ProverDID: "DemoHolderDID"},
		},
	))
	defer issuer.Close()
	defer holder.Close()

	o := exchange.ProposalOptions{
		ConnectionID: connectionID,
		Comment:      "credex demo",
		Inputs:       c.inputs(families, credDefID),
	}
	if c.Connectionless {
		o.ConnectionID = ""
	}
	out := try.To1(holder.API.ProposeCredential(ctx, data.Version(c.Version), o))
	if out.Envelope == nil {
		cmds.Fprintln(w, "# connection-less proposal delivered out-of-band")
		try.To(issuer.Receive(ctx, "", out.Message.JSON()))
	}

	thid := out.Record.ThreadID
	try.To(drive(ctx, w, thid, issuer, holder))

	recs := append(try.To1(records(ctx, issuer, thid)), try.To1(records(ctx, holder, thid))...)
	r = cmds.NewRecords(recs)
	cmds.WriteYAML(w, r)
	return r, nil
}

func (c Cmd) inputs(families []format.Family, credDefID string) (inputs []format.Input) {
	for _, f := range families {
		switch f {
		case format.FamilyIndy:
			inputs = append(inputs, indy.Input{
				CredDefID:  credDefID,
				Attributes: []issuecredential.Attribute{{Name: "name", Value: c.SubjectName}},
			})
		case format.FamilyLDProof:
			inputs = append(inputs, ldproof.Input{Detail: ldproof.Detail{
				Credential: map[string]any{
					"@context":          []any{"https://www.w3.org/2018/credentials/v1"},
					"type":              []any{"VerifiableCredential"},
					"issuer":            "did:example:demo-issuer",
					"issuanceDate":      "2024-01-01T00:00:00Z",
					"credentialSubject": map[string]any{"name": c.SubjectName},
				},
				Options: ldproof.Options{ProofType: ldproof.ProofTypeEd25519},
			}})
		case format.FamilySDJWT:
			inputs = append(inputs, sdjwt.Input{
				VCT:         "https://credentials.example.com/demo",
				Claims:      map[string]any{"name": c.SubjectName},
				Disclosable: []string{"name"},
			})
		}
	}
	return inputs
}

func records(ctx context.Context, a *agency.Agent, thid string) ([]*data.ExchangeRecord, error) {
	return a.API.FindAllByQuery(ctx, data.Query{ThreadID: thid})
}

// drive does the controller steps the auto-accept policy left until both
// records have ended.
func drive(ctx context.Context, w io.Writer, thid string, agents ...*agency.Agent) (err error) {
	defer err2.Handle(&err, "drive exchange %s", thid)

	for step := 0; step < maxSteps; step++ {
		done := true
		for _, a := range agents {
			for _, rec := range try.To1(records(ctx, a, thid)) {
				if rec.IsTerminal() {
					continue
				}
				done = false
				if acted := try.To1(next(ctx, a, rec)); acted {
					cmds.Fprintf(w, "# %s: accepted in state %s\n", a.Name, rec.State)
				}
			}
		}
		if done {
			return nil
		}
	}
	return ErrNotDone
}

// next continues the exchange from the state of the record. False means
// the other party is due.
func next(ctx context.Context, a *agency.Agent, rec *data.ExchangeRecord) (bool, error) {
	out, err := a.API.Continue(ctx, rec)
	return err == nil && out != nil, err
}
