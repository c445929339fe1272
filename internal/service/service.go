package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/repository"
)

// MaxLimit is the largest page size a listing may request.
const MaxLimit = 200

type RepoAPI interface {
	CountProperties(ctx context.Context, agentID *int64) (int, error)
	ListProperties(ctx context.Context, agentID *int64, limit, offset int) ([]models.Property, error)
	ListAgentMeterRows(ctx context.Context, agentID int64) ([]models.AgentMeterRow, error)
	ListContracts(ctx context.Context, propertyID int64) ([]models.Contract, error)
	UpdateProperty(ctx context.Context, propertyID int64, upd models.PropertyUpdate) (models.Property, error)
}

type Service struct {
	repo   RepoAPI
	logger *slog.Logger
}

func New(repo RepoAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListProperties returns one page of properties. A nil agentID lists all agents.
func (s *Service) ListProperties(ctx context.Context, agentID *int64, page, limit int) (models.PropertyPage, error) {
	if page < 1 {
		return models.PropertyPage{}, ErrInvalidPage
	}
	if limit < 1 || limit > MaxLimit {
		return models.PropertyPage{}, ErrInvalidLimit
	}

	offset := (page - 1) * limit

	total, err := s.repo.CountProperties(ctx, agentID)
	if err != nil {
		s.logger.ErrorContext(ctx, "count properties failed", slog.String("error", err.Error()))
		return models.PropertyPage{}, err
	}

	props := []models.Property{}
	if offset < total {
		props, err = s.repo.ListProperties(ctx, agentID, limit, offset)
		if err != nil {
			s.logger.ErrorContext(ctx, "list properties failed", slog.String("error", err.Error()))
			return models.PropertyPage{}, err
		}
	}

	return models.PropertyPage{
		Properties: props,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// ListByAgent returns the property × meter join of one agent.
func (s *Service) ListByAgent(ctx context.Context, agentID int64) ([]models.AgentMeterRow, error) {
	if agentID < 1 {
		return nil, ErrInvalidID
	}
	rows, err := s.repo.ListAgentMeterRows(ctx, agentID)
	if err != nil {
		s.logger.ErrorContext(ctx, "list agent properties failed",
			slog.Int64("agent_id", agentID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	if rows == nil {
		rows = []models.AgentMeterRow{}
	}
	return rows, nil
}

func (s *Service) ListContracts(ctx context.Context, propertyID int64) ([]models.Contract, error) {
	if propertyID < 1 {
		return nil, ErrInvalidID
	}
	contracts, err := s.repo.ListContracts(ctx, propertyID)
	if err != nil {
		s.logger.ErrorContext(ctx, "list contracts failed",
			slog.Int64("property_id", propertyID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	if contracts == nil {
		contracts = []models.Contract{}
	}
	return contracts, nil
}

// UpdateProperty applies a partial address update and returns the stored row.
func (s *Service) UpdateProperty(ctx context.Context, propertyID int64, upd models.PropertyUpdate) (models.Property, error) {
	if propertyID < 1 {
		return models.Property{}, ErrInvalidID
	}
	if upd.IsEmpty() {
		return models.Property{}, ErrNoFields
	}

	p, err := s.repo.UpdateProperty(ctx, propertyID, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Property{}, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "update property failed",
			slog.Int64("property_id", propertyID),
			slog.String("error", err.Error()),
		)
		return models.Property{}, err
	}

	s.logger.InfoContext(ctx, "property updated",
		slog.Int64("property_id", propertyID),
		slog.Int("fields", len(upd.Values())),
	)
	return p, nil
}
