package unitofwork

import (
	"context"

	"mesh-explorer-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	MeshSessionRepository() contract.MeshSessionRepository
	SurfaceMeshRepository() contract.SurfaceMeshRepository
	SegmentRepository() contract.SegmentRepository
	ChatMessageRepository() contract.ChatMessageRepository
}
