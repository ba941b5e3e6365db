package demo

import (
	"bytes"
	"testing"

	"github.com/findy-network/findy-credex/cmds"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/lainio/err2/assert"
	"gopkg.in/yaml.v3"
)

func TestCmd_Validate(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.NoError(DefaultValues.Validate())

	c := DefaultValues
	c.Version = "v1"
	assert.Error(c.Validate())
	c.Formats = "indy"
	assert.NoError(c.Validate())
	c.Version = "v3"
	assert.Error(c.Validate())

	c = DefaultValues
	c.AutoAccept = "later"
	assert.Error(c.Validate())
}

func TestCmd_Exec(t *testing.T) {
	tests := []struct {
		name string
		edit func(c *Cmd)
	}{
		{"auto", func(*Cmd) {}},
		{"manual", func(c *Cmd) { c.AutoAccept = string(data.AutoAcceptNever) }},
		{"content approved", func(c *Cmd) { c.AutoAccept = string(data.AutoAcceptContentApproved) }},
		{"connectionless", func(c *Cmd) { c.Connectionless = true }},
		{"all formats", func(c *Cmd) { c.Formats = "" }},
		{"v1", func(c *Cmd) {
			c.Version = string(data.V1)
			c.Formats = "indy"
			c.AutoAccept = string(data.AutoAcceptNever)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			c := DefaultValues
			tt.edit(&c)
			assert.NoError(c.Validate())

			var buf bytes.Buffer
			r, err := c.Exec(&buf)
			assert.NoError(err)
			recs := r.(cmds.Records)
			assert.SLen(recs, 2)
			for _, rec := range recs {
				assert.Equal(rec.State, data.StateDone.String())
				assert.Equal(rec.Version, c.Version)
			}

			var printed []cmds.RecordView
			assert.NoError(yaml.NewDecoder(&buf).Decode(&printed))
			assert.SLen(printed, 2)
		})
	}
}
