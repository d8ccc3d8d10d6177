package memory

import (
	"testing"

	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/maxviazov/pelada-service/internal/repository/contract"
)

func noop() {}

func TestPlayerRepository_MemoryContract(t *testing.T) {
	contract.RunPlayerRepositoryContract(t, func(t *testing.T) (repository.PlayerRepository, func()) {
		return New().Players(), noop
	})
}

func TestMatchRepository_MemoryContract(t *testing.T) {
	contract.RunMatchRepositoryContract(t, func(t *testing.T) (repository.MatchRepository, func()) {
		return New().Matches(), noop
	})
}

func TestUserRepository_MemoryContract(t *testing.T) {
	contract.RunUserRepositoryContract(t, func(t *testing.T) (repository.UserRepository, func()) {
		return New().Users(), noop
	})
}

func TestTxManager_MemoryContract(t *testing.T) {
	contract.RunTxManagerContract(t, func(t *testing.T) (repository.TxManager, repository.PlayerRepository, func()) {
		s := New()
		return s, s.Players(), noop
	})
}

func TestPinger_MemoryContract(t *testing.T) {
	contract.RunPingerContract(t, func(t *testing.T) (repository.Pinger, func()) {
		return New(), noop
	})
}
