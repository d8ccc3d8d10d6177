package service

import (
	"math/rand/v2"
	"sync"

	"github.com/maxviazov/pelada-service/internal/balancer"
	"github.com/maxviazov/pelada-service/internal/match"
)

// Live is the in-process state shared by the team and match services: the pre-match draft
// and the single live session. One mutex guards both, so a draft edit can never interleave
// with a match start.
type Live struct {
	mu      sync.Mutex
	draft   *balancer.Draft
	session *match.Session
	rng     *rand.Rand
}

// NewLive builds an idle state. rng drives shuffle mode; nil seeds a random source.
func NewLive(rng *rand.Rand) *Live {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Live{draft: balancer.NewDraft(), session: match.NewSession(), rng: rng}
}
