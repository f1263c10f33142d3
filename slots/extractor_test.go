package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dvitale/gias/core"
)

func TestExtract_PlanCodes(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"dimmi del piano A1", "A1"},
		{"dettagli del piano prc-2024-007 per favore", "PRC-2024-007"},
		{"piano b12 scaduto?", "B12"},
		{"A1", "A1"},
		{"entro 20 km da Cuneo", ""}, // a radius is not a plan code
		{"ho 3 piani da fare", ""},
	}
	for _, tt := range tests {
		got := Extract(tt.text)
		assert.Equal(t, tt.want, got.Get(core.SlotPlanCode), "text=%q", tt.text)
	}
}

func TestExtract_OrgUnitAndRegistration(t *testing.T) {
	got := Extract("non conformità della ASL CN1, azienda 01234567890")
	assert.Equal(t, "ASL CN1", got.Get(core.SlotOrgUnit))
	assert.Equal(t, "01234567890", got.Get(core.SlotRegistrationNumber))
}

func TestExtract_TopicAfterPlansAbout(t *testing.T) {
	got := Extract("quali piani sul benessere animale?")
	assert.Equal(t, "benessere animale", got.Get(core.SlotTopic))

	got = Extract("piani relativi a etichettatura")
	assert.Equal(t, "etichettatura", got.Get(core.SlotTopic))
	assert.Equal(t, "etichettatura", got.Get(core.SlotNCCategory))
}

func TestExtract_LocationAndRadius(t *testing.T) {
	got := Extract("strutture entro 20 km da Cuneo")
	assert.Equal(t, "20", got.Get(core.SlotRadiusKM))
	assert.Equal(t, "Cuneo", got.Get(core.SlotLocation))
}

func TestExtract_Empty(t *testing.T) {
	got := Extract("   ")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBareLocation(t *testing.T) {
	assert.Equal(t, "Cuneo", BareLocation(" Cuneo "))
	assert.Equal(t, "Borgo San Dalmazzo", BareLocation("Borgo San Dalmazzo"))
	assert.Empty(t, BareLocation("il piano A1"))
	assert.Empty(t, BareLocation(""))
}

func TestProcedureTopic(t *testing.T) {
	assert.Equal(t, "registra un campionamento", ProcedureTopic("Come si registra un campionamento?"))
	assert.Empty(t, ProcedureTopic("piano A1"))
}

func TestExtract_Limit(t *testing.T) {
	got := Extract("mostrami i primi 10 piani scaduti")
	assert.Equal(t, "10", got.Get(core.SlotLimit))
}
