package entity

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealValidate(t *testing.T) {
	tests := []struct {
		name    string
		deal    Deal
		wantErr error
	}{
		{"valid", Deal{Status: StatusWon, Value: decimal.NewFromInt(10)}, nil},
		{"zero value allowed", Deal{Status: StatusLead}, nil},
		{"unknown status", Deal{Status: "onboarding"}, ErrInvalidStatus},
		{"empty status", Deal{}, ErrInvalidStatus},
		{"negative value", Deal{Status: StatusLead, Value: decimal.NewFromInt(-1)}, ErrNegativeValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.deal.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStatusChanged(t *testing.T) {
	assert.True(t, StatusChanged(StatusLead, StatusQualified))
	assert.False(t, StatusChanged(StatusLead, StatusLead))
	assert.False(t, StatusChanged("", StatusWon), "unknown current status never triggers")
	assert.False(t, StatusChanged(StatusLead, ""), "empty next defaults to lead")
	assert.True(t, StatusChanged(StatusWon, ""))
}

func TestStageContext(t *testing.T) {
	assert.Contains(t, StageContext("negotiation"), "terms")
	assert.Contains(t, StageContext("negotiation"), "pricing")
	assert.Contains(t, StageContext("negotiation"), "implementation")
	assert.Equal(t, "general communication regarding the deal", StageContext("onboarding"))
	for _, s := range DealStatuses() {
		assert.NotEqual(t, GenericStageContext, StageContext(string(s)), s)
	}
}

func TestContactRefUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ContactRef
	}{
		{"bare id", `7`, ContactRef{ID: 7}},
		{"float id", `7.0`, ContactRef{ID: 7}},
		{"string id", `"12"`, ContactRef{ID: 12}},
		{"expanded", `{"Id": 3, "Name": "J. Lee"}`, ContactRef{ID: 3, Name: "J. Lee"}},
		{"null", `null`, ContactRef{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ContactRef
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	var bad ContactRef
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
}

func TestDealDecodesStoreRecord(t *testing.T) {
	raw := `{
		"Id": 42,
		"Name": "Acme Expansion",
		"name_c": "Acme Expansion",
		"contact_id_c": {"Id": 9, "Name": "J. Lee"},
		"value_c": 50000,
		"status_c": "negotiation",
		"ModifiedOn": "2024-05-01T10:00:00Z"
	}`

	var d Deal
	require.NoError(t, json.Unmarshal([]byte(raw), &d))

	assert.Equal(t, 42, d.ID)
	assert.Equal(t, "Acme Expansion", d.Name)
	assert.Equal(t, ContactRef{ID: 9, Name: "J. Lee"}, d.Contact)
	assert.True(t, d.Value.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, StatusNegotiation, d.Status)
	require.NotNil(t, d.ModifiedOn)
	assert.Equal(t, 2024, d.ModifiedOn.Year())
}
