package crm

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/taxdesk/models"
)

type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

func TestPickNextPrefersPhones(t *testing.T) {
	clients := []models.Client{
		{ID: "a", Status: models.StatusNew},
		{ID: "b", Status: models.StatusNew, Phone: "(555) 123-4567"},
		{ID: "c", Status: models.StatusTalked, Phone: "555 999 0000"},
		{ID: "d", Status: models.StatusNew, Phone: "123"},
		{ID: "e", Status: models.StatusNew, Phone: "555-888-1111"},
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		c, ok := PickNext(clients, []string{models.StatusNew}, rng)
		require.True(t, ok)
		assert.Contains(t, []string{"b", "e"}, c.ID)
	}
}

func TestPickNextFallsBackToNoPhone(t *testing.T) {
	clients := []models.Client{
		{ID: "a", Status: models.StatusNew, Phone: "12"},
		{ID: "b", Status: models.StatusNew},
		{ID: "c", Status: models.StatusTalked, Phone: "5551234567"},
	}

	c, ok := PickNext(clients, []string{models.StatusNew}, fixedRand(1))
	require.True(t, ok)
	assert.Equal(t, "b", c.ID)
}

func TestPickNextEmpty(t *testing.T) {
	_, ok := PickNext(nil, []string{models.StatusNew}, nil)
	assert.False(t, ok)

	_, ok = PickNext([]models.Client{{ID: "a", Status: models.StatusTalked}}, []string{models.StatusNew}, nil)
	assert.False(t, ok)
}

func TestWorkableMultipleStatuses(t *testing.T) {
	clients := []models.Client{
		{ID: "a", Status: models.StatusNew},
		{ID: "b", Status: models.StatusLeftMessage},
		{ID: "c", Status: models.StatusTalked},
	}
	got := Workable(clients, []string{models.StatusNew, models.StatusLeftMessage})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}
