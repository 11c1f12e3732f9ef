package service

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/repository"
)

// Outcome of a ledger registration
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
)

type ledger struct {
	repo     repository.IdempotencyRepository
	mu       sync.Mutex
	inFlight map[string]struct{}
	logger   *zap.Logger
}

// NewLedger creates an idempotency ledger backed by the repository
func NewLedger(repo repository.IdempotencyRepository, logger *zap.Logger) *ledger {
	return &ledger{
		repo:     repo,
		inFlight: make(map[string]struct{}),
		logger:   logger,
	}
}

// Register runs handler unless key was already processed. The record is written
// only after handler succeeds; a handler error is returned and nothing is recorded.
// A concurrent registration of the same key in this process is skipped.
func (l *ledger) Register(ctx context.Context, key string, payload []byte, handler func(ctx context.Context) error) (Outcome, error) {
	exists, err := l.repo.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		l.logger.Info("Duplicate delivery skipped", zap.String("key", key))
		return OutcomeSkipped, nil
	}

	if !l.acquire(key) {
		l.logger.Info("Delivery already in flight, skipped", zap.String("key", key))
		return OutcomeSkipped, nil
	}
	defer l.release(key)

	// a delivery that held the key may have committed since the first check
	exists, err = l.repo.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		l.logger.Info("Duplicate delivery skipped", zap.String("key", key))
		return OutcomeSkipped, nil
	}

	if err := handler(ctx); err != nil {
		return "", err
	}

	record := &domain.IdempotencyRecord{Key: key, PayloadHash: PayloadHash(payload)}
	if err := l.repo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// another instance committed first; its side effects already ran
			l.logger.Warn("Idempotency key committed concurrently", zap.String("key", key))
			return OutcomeSkipped, nil
		}
		l.logger.Error("Failed to record processed delivery", zap.String("key", key), zap.Error(err))
	}

	return OutcomeProcessed, nil
}

func (l *ledger) acquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.inFlight[key]; ok {
		return false
	}
	l.inFlight[key] = struct{}{}
	return true
}

func (l *ledger) release(key string) {
	l.mu.Lock()
	delete(l.inFlight, key)
	l.mu.Unlock()
}

// PayloadHash is the hex BLAKE2b-256 digest of a payload
func PayloadHash(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
