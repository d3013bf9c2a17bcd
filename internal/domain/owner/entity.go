package owner

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Owner は予約の重複禁止が適用される担当者を表す
type Owner struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// NewOwner は新しいオーナーを作成する
func NewOwner(name string) *Owner {
	return &Owner{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now(),
	}
}

// Validate はオーナーの検証を行う
func (o *Owner) Validate() error {
	if o.Name == "" {
		return ErrOwnerNameRequired
	}
	return nil
}
