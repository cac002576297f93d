package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/models"
	"github.com/shrimpsizemoose/dragning/internal/raffle"
	"github.com/shrimpsizemoose/dragning/internal/store"
)

const recentActivitiesPerEmployee = 10

type Service struct {
	Config   *Config
	Store    store.RaffleStore
	Auth     *Auth
	Selector *raffle.Selector
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	return &Service{
		Config:   config,
		Store:    store,
		Auth:     auth,
		Selector: raffle.NewSelector(),
	}, nil
}

// Actor is whoever triggers an operation; it only feeds the audit log.
type Actor struct {
	UserID    *int64
	IP        string
	UserAgent string
}

func ActorFromClaims(claims *Claims, ip, userAgent string) Actor {
	actor := Actor{IP: ip, UserAgent: userAgent}
	if claims != nil {
		id := claims.UserID
		actor.UserID = &id
	}
	return actor
}

// audit is best effort: a failed audit write never fails the operation.
func (s *Service) audit(ctx context.Context, actor Actor, action, table string, recordID *int64, oldValues, newValues interface{}) {
	entry := &models.AuditEntry{
		UserID:    actor.UserID,
		Action:    action,
		RecordID:  recordID,
		OldValues: marshalValues(oldValues),
		NewValues: marshalValues(newValues),
		IPAddress: actor.IP,
		UserAgent: actor.UserAgent,
	}
	if table != "" {
		entry.TableName = &table
	}

	if err := s.Store.LogAudit(ctx, entry); err != nil {
		logger.Error.Printf("Failed to write audit log for %s: %v", action, err)
	}
}

func marshalValues(v interface{}) *string {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error.Printf("Failed to encode audit values: %v", err)
		return nil
	}
	out := string(data)
	return &out
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if s.Auth != nil {
		if err := s.Auth.Close(); err != nil {
			errs = append(errs, fmt.Errorf("auth: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %w", errors.Join(errs...))
	}
	return nil
}
