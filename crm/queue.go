// ABOUTME: Call queue selection
// ABOUTME: Picks a random workable client, preferring ones with a phone number
package crm

import (
	"math/rand/v2"

	"github.com/harperreed/taxdesk/models"
)

// Rand is the source of randomness used by PickNext.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the process-wide generator.
var DefaultRand Rand = globalRand{}

// Workable returns clients whose status is one of statuses, in table order.
func Workable(clients []models.Client, statuses []string) []models.Client {
	allowed := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}

	var out []models.Client
	for _, c := range clients {
		if allowed[c.Status] {
			out = append(out, c)
		}
	}
	return out
}

// PickNext samples one workable client. Clients with a dialable phone are
// always chosen over those without; false means nothing is workable.
func PickNext(clients []models.Client, statuses []string, rng Rand) (models.Client, bool) {
	if rng == nil {
		rng = DefaultRand
	}

	queue := Workable(clients, statuses)
	if len(queue) == 0 {
		return models.Client{}, false
	}

	var withPhone, without []models.Client
	for _, c := range queue {
		if HasPhone(c.Phone) {
			withPhone = append(withPhone, c)
		} else {
			without = append(without, c)
		}
	}

	pool := without
	if len(withPhone) > 0 {
		pool = withPhone
	}
	return pool[rng.IntN(len(pool))], true
}
