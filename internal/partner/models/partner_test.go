package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "refeera/pkg/domain-errors"
)

func validInput() PartnerInput {
	return PartnerInput{
		Name: " Pat ", Email: " Pat@Example.COM ", Number: "555", Location: "Austin", State: "TX", Earning: "1000",
	}
}

func TestPartnerInputValidate(t *testing.T) {
	in := validInput()
	in.Normalize()
	require.NoError(t, in.Validate())
	assert.Equal(t, "Pat", in.Name)
	assert.Equal(t, "pat@example.com", in.Email)

	for _, blank := range []func(*PartnerInput){
		func(in *PartnerInput) { in.Name = "  " },
		func(in *PartnerInput) { in.Email = "" },
		func(in *PartnerInput) { in.Earning = "" },
	} {
		in := validInput()
		blank(&in)
		in.Normalize()
		assert.True(t, dErrors.HasCode(in.Validate(), dErrors.CodeMissingFields))
	}

	in = validInput()
	in.Email = "pat at example"
	in.Normalize()
	assert.True(t, dErrors.HasCode(in.Validate(), dErrors.CodeInvalidInput))
}

func TestApplyKeepsSelfieWhenNoneUploaded(t *testing.T) {
	now := time.Now()
	p := NewPartner("u-1", validInput(), "uploads/1-me.png", now)
	assert.Equal(t, []string{}, p.Languages)

	later := now.Add(time.Hour)
	in := validInput()
	in.Languages = []string{"Spanish"}
	p.Apply(in, "", later)
	assert.Equal(t, "uploads/1-me.png", p.Selfie)
	assert.Equal(t, []string{"Spanish"}, p.Languages)
	assert.Equal(t, later, p.UpdatedAt)
	assert.Equal(t, now, p.CreatedAt)

	p.Apply(in, "uploads/2-new.png", later)
	assert.Equal(t, "uploads/2-new.png", p.Selfie)
}

func TestPartnerInputDecodesMultipartLists(t *testing.T) {
	var in PartnerInput
	raw := `{"partner_name":"Pat","experience":"[\"Sales\",\"Retail\"]","languages":"English"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	assert.Equal(t, []string{"Sales", "Retail"}, []string(in.Experience))
	assert.Equal(t, []string{"English"}, []string(in.Languages))
}
