package server

import (
	"context"
	"fmt"
)

// InitialiseSystem makes sure the superuser configured by SUPERUSER_* exists.
// It runs on every start and does nothing once a superuser is present.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	if _, err := s.deps.Admin.EnsureSuperUser(ctx, s.config.GetSuperUser()); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap superuser: %w", err)
	}
	return nil
}
