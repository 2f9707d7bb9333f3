package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedApp "github.com/davicafu/hexacrud/internal/shared/application"
	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	sharedCache "github.com/davicafu/hexacrud/internal/shared/infra/platform/cache"
	"github.com/davicafu/hexacrud/internal/user/domain"
)

// UserService define los casos de uso relacionados con User.
type UserService struct {
	*sharedApp.CrudService[domain.User, *domain.User]
	log *zap.Logger
	now func() time.Time
}

// NewUserService constructor
func NewUserService(repo sharedDomain.Repository[domain.User], cache sharedCache.Cache, log *zap.Logger, opts sharedApp.Options) *UserService {
	return &UserService{
		CrudService: sharedApp.NewCrudService[domain.User](domain.UserAggregate, repo, cache, log, opts),
		log:         log,
		now:         time.Now,
	}
}

// Create rechaza emails ya registrados.
func (s *UserService) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	if err := s.checkEmailFree(ctx, u.Email, uuid.Nil); err != nil {
		return nil, err
	}
	return s.CrudService.Create(ctx, u)
}

// Update comprueba el email sólo si el patch lo cambia.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*domain.User, error) {
	if email, ok := patch["email"].(string); ok {
		if err := s.checkEmailFree(ctx, email, id); err != nil {
			return nil, err
		}
	}
	return s.CrudService.Update(ctx, id, patch)
}

func (s *UserService) checkEmailFree(ctx context.Context, email string, owner uuid.UUID) error {
	users, err := s.Filter(ctx, filter.Filter{Filters: filter.One(domain.ByEmail(email))})
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID != owner {
			s.log.Warn("Email already registered", zap.String("email", email))
			return fmt.Errorf("email %s: %w", email, sharedDomain.ErrAlreadyExists)
		}
	}
	return nil
}

// SearchUsersByName busca por nombre sin distinguir mayúsculas, ordenado por nombre.
func (s *UserService) SearchUsersByName(ctx context.Context, name string) ([]*domain.User, error) {
	return s.Search(ctx, domain.UserSearch{Name: name, SortBy: "name"})
}

// Search traduce los criterios a un filtro y lo ejecuta.
func (s *UserService) Search(ctx context.Context, search domain.UserSearch) ([]*domain.User, error) {
	return s.Filter(ctx, search.ToFilter(s.now()))
}
