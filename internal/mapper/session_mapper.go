package mapper

import (
	"mesh-explorer-be/internal/entity"
	"mesh-explorer-be/internal/model"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) UserToModel(e *entity.User) *model.User {
	return &model.User{
		Id:         e.Id,
		SecretHash: e.SecretHash,
		CreatedAt:  e.CreatedAt,
	}
}

func (m *SessionMapper) UserToEntity(mo *model.User) *entity.User {
	return &entity.User{
		Id:         mo.Id,
		SecretHash: mo.SecretHash,
		CreatedAt:  mo.CreatedAt,
	}
}

func (m *SessionMapper) SessionToModel(e *entity.MeshSession) *model.MeshSession {
	return &model.MeshSession{
		Id:          e.Id,
		UserId:      e.UserId,
		Name:        e.Name,
		CreatedAt:   e.CreatedAt,
		SegmentedAt: e.SegmentedAt,
	}
}

func (m *SessionMapper) SessionToEntity(mo *model.MeshSession) *entity.MeshSession {
	return &entity.MeshSession{
		Id:          mo.Id,
		UserId:      mo.UserId,
		Name:        mo.Name,
		CreatedAt:   mo.CreatedAt,
		SegmentedAt: mo.SegmentedAt,
	}
}

func (m *SessionMapper) ChatMessageToModel(e *entity.ChatMessage) *model.ChatMessage {
	return &model.ChatMessage{
		Id:        e.Id,
		SessionId: e.SessionId,
		Role:      e.Role,
		Text:      e.Text,
		CreatedAt: e.CreatedAt,
	}
}

func (m *SessionMapper) ChatMessageToEntity(mo *model.ChatMessage) *entity.ChatMessage {
	return &entity.ChatMessage{
		Id:        mo.Id,
		SessionId: mo.SessionId,
		Role:      mo.Role,
		Text:      mo.Text,
		CreatedAt: mo.CreatedAt,
	}
}
