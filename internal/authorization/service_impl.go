package authorization

import (
	"context"

	"github.com/casbin/casbin/v2"
	authdomain "github.com/perkhub/perkstore/internal/auth/domain"
	"go.uber.org/zap"
)

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.Enforcer
}

func NewService(log *zap.Logger, enforcer *casbin.Enforcer) Service {
	return &ServiceImpl{
		log:      log.Named("authorization.service"),
		enforcer: enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor *authdomain.User, object string, action string) error {
	if actor == nil || !actor.IsActive {
		return ErrInvalidActor
	}
	if object == "" {
		return ErrInvalidObject
	}
	if action == "" {
		return ErrInvalidAction
	}

	role := RoleMember
	if actor.IsSuperuser {
		role = RoleSuperuser
	}

	allowed, err := s.enforcer.Enforce(role, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.Int64("actor_id", int64(actor.ID)),
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}
