package texts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"telegram-companion-bot/internal/models"
)

func TestPickQuestionKnownCategory(t *testing.T) {
	cat, q := PickQuestion("deep")
	assert.Equal(t, "deep", cat)
	assert.Contains(t, Questions["deep"], q)
}

func TestPickQuestionFallsBackToLight(t *testing.T) {
	cat, q := PickQuestion("philosophical")
	assert.Equal(t, "light", cat)
	assert.Contains(t, Questions["light"], q)
}

func TestAddressStyles(t *testing.T) {
	u := &models.User{Petname: "солнышко"}

	got := Address(u, &models.Prefs{AddressStyle: models.AddressFixed})
	assert.Equal(t, "солнышко", got)

	got = Address(u, &models.Prefs{AddressStyle: models.AddressRandom})
	assert.Contains(t, addressPool, got)

	// nil prefs keep the fixed petname
	assert.Equal(t, "солнышко", Address(u, nil))
}

func TestRitualMentionsAddress(t *testing.T) {
	assert.Contains(t, Ritual(models.RitualMorning, "зайчик"), "зайчик")
	assert.Contains(t, Ritual(models.RitualNight, "зайчик"), "зайчик")
}
