package cmds

import (
	"bytes"
	"errors"
	"testing"

	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/lainio/err2/assert"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

func TestValidateTime(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	err := ValidateTime("21:45")
	assert.NoError(err)
	err = ValidateTime("01:37:48")
	assert.NoError(err)
	err = ValidateTime("24:00:00")
	assert.Error(err)
	assert.That(errors.Is(err, ErrInvalid))
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []format.Family
		ok   bool
	}{
		{"", nil, true},
		{"sdjwt", []format.Family{format.FamilySDJWT}, true},
		{"indy, ldproof", []format.Family{format.FamilyIndy, format.FamilyLDProof}, true},
		{"sdjwt,mdoc", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			got, err := ParseFormats(tt.in)
			if !tt.ok {
				assert.That(errors.Is(err, ErrInvalid))
				return
			}
			assert.NoError(err)
			assert.DeepEqual(got, tt.want)
		})
	}
}

func TestValidateAutoAccept(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.NoError(ValidateAutoAccept(data.AutoAcceptContentApproved))
	assert.Error(ValidateAutoAccept("sometimes"))
}

func TestLogger(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	var buf bytes.Buffer
	l := Logger(&buf, "warn", false)
	assert.Equal(l.GetLevel(), zerolog.WarnLevel)
	l = Logger(&buf, "loud", false)
	assert.Equal(l.GetLevel(), zerolog.InfoLevel)
}

func TestRecords_YAML(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	rec := data.NewExchangeRecord("r1", data.V2, data.RoleIssuer, "t1", "c1")
	rec.Bindings = []data.Binding{{Family: "sdjwt", RecordID: "b1"}}

	var buf bytes.Buffer
	WriteYAML(&buf, NewRecords([]*data.ExchangeRecord{rec}))

	var got []map[string]any
	assert.NoError(yaml.Unmarshal(buf.Bytes(), &got))
	assert.SLen(got, 1)
	assert.Equal(got[0]["thread_id"], "t1")
	assert.Equal(got[0]["role"], any(string(data.RoleIssuer)))
	assert.DeepEqual(got[0]["formats"], []any{"sdjwt"})
}
