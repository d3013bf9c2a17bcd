package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanosuguru/go-calendar-booking/internal/domain/client"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/owner"
)

// DirectoryService はオーナーとクライアントの参照を提供する
type DirectoryService struct {
	ownerRepo  owner.Repository
	clientRepo client.Repository
}

func NewDirectoryService(or owner.Repository, cr client.Repository) *DirectoryService {
	return &DirectoryService{ownerRepo: or, clientRepo: cr}
}

func (s *DirectoryService) ListOwners(ctx context.Context) ([]*owner.Owner, error) {
	return s.ownerRepo.List(ctx)
}

func (s *DirectoryService) ListClients(ctx context.Context) ([]*client.Client, error) {
	return s.clientRepo.List(ctx)
}

// OwnerExists はオーナーが登録されているかを返す
func (s *DirectoryService) OwnerExists(ctx context.Context, id string) (bool, error) {
	_, err := s.ownerRepo.GetByID(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, owner.ErrOwnerNotFound) {
		return false, nil
	}
	return false, err
}

// ClientExists はクライアントが登録されているかを返す
func (s *DirectoryService) ClientExists(ctx context.Context, id string) (bool, error) {
	_, err := s.clientRepo.GetByID(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, client.ErrClientNotFound) {
		return false, nil
	}
	return false, err
}

func (s *DirectoryService) CreateOwner(ctx context.Context, name string) (*owner.Owner, error) {
	o := owner.NewOwner(name)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := s.ownerRepo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("オーナー登録に失敗: %w", err)
	}
	return o, nil
}

func (s *DirectoryService) CreateClient(ctx context.Context, name string) (*client.Client, error) {
	c := client.NewClient(name)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.clientRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("クライアント登録に失敗: %w", err)
	}
	return c, nil
}
