package service

import (
	"context"
	"errors"

	catalogerrors "agendazap/internal/catalog/errors"
	catalogrepo "agendazap/internal/catalog/repository"
	apperrors "agendazap/pkg/errors"
	"agendazap/pkg/model"
)

// CatalogService exposes the bookable service catalog for read access. The
// catalog is reference data; it is consumed by the scheduling engine and
// read by operators over HTTP.
type CatalogService interface {
	List(ctx context.Context) ([]*model.Service, error)
	GetByID(ctx context.Context, id string) (*model.Service, error)
}

type catalogService struct {
	repo catalogrepo.ServiceRepository
}

func NewCatalogService(repo catalogrepo.ServiceRepository) CatalogService {
	return &catalogService{repo: repo}
}

func (s *catalogService) List(ctx context.Context) ([]*model.Service, error) {
	services, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to list services", err)
	}
	return services, nil
}

func (s *catalogService) GetByID(ctx context.Context, id string) (*model.Service, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}

	service, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrServiceNotFound) {
			return nil, apperrors.NotFoundWithID("Service", id)
		}
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid service ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve service", err)
	}
	return service, nil
}
