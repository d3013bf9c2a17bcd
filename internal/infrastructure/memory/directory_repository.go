package memory

import (
	"context"
	"errors"
	"sort"

	"github.com/sanosuguru/go-calendar-booking/internal/domain/client"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/owner"
)

var (
	errMissingOwner  = errors.New("memory: 参照先のオーナーが存在しません")
	errMissingClient = errors.New("memory: 参照先のクライアントが存在しません")
)

// OwnerRepository はストア上のオーナーリポジトリ
type OwnerRepository struct {
	store *Store
}

func NewOwnerRepository(store *Store) *OwnerRepository {
	return &OwnerRepository{store: store}
}

func (r *OwnerRepository) Create(ctx context.Context, o *owner.Owner) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *o
	r.store.owners[o.ID] = &c
	return nil
}

func (r *OwnerRepository) GetByID(ctx context.Context, id string) (*owner.Owner, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.owners[id]
	if !ok {
		return nil, owner.ErrOwnerNotFound
	}
	c := *o
	return &c, nil
}

func (r *OwnerRepository) List(ctx context.Context) ([]*owner.Owner, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	result := make([]*owner.Owner, 0, len(r.store.owners))
	for _, o := range r.store.owners {
		c := *o
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// ClientRepository はストア上のクライアントリポジトリ
type ClientRepository struct {
	store *Store
}

func NewClientRepository(store *Store) *ClientRepository {
	return &ClientRepository{store: store}
}

func (r *ClientRepository) Create(ctx context.Context, cl *client.Client) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *cl
	r.store.clients[cl.ID] = &c
	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (*client.Client, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cl, ok := r.store.clients[id]
	if !ok {
		return nil, client.ErrClientNotFound
	}
	c := *cl
	return &c, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]*client.Client, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	result := make([]*client.Client, 0, len(r.store.clients))
	for _, cl := range r.store.clients {
		c := *cl
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

var (
	_ owner.Repository  = (*OwnerRepository)(nil)
	_ client.Repository = (*ClientRepository)(nil)
)
