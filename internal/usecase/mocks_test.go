package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
)

type MockDealRepository struct {
	mock.Mock
}

func (m *MockDealRepository) FindAll(ctx context.Context) ([]entity.Deal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Deal), args.Error(1)
}

func (m *MockDealRepository) FindByID(ctx context.Context, id int) (*entity.Deal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Deal), args.Error(1)
}

func (m *MockDealRepository) Create(ctx context.Context, d *entity.Deal) (*entity.Deal, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Deal), args.Error(1)
}

func (m *MockDealRepository) UpdateFields(ctx context.Context, d *entity.Deal) (*entity.Deal, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Deal), args.Error(1)
}

func (m *MockDealRepository) UpdateNotes(ctx context.Context, id int, notes string) error {
	return m.Called(ctx, id, notes).Error(0)
}

func (m *MockDealRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateDealEmail(ctx context.Context, req entity.EmailDraftRequest) (*entity.EmailDraftResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.EmailDraftResult), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishDraft(ctx context.Context, payload queue.DraftPayload) error {
	return m.Called(ctx, payload).Error(0)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string { return "Gemini" }

func (m *MockProvider) CredentialKey() string { return "GEMINI_API_KEY" }

func (m *MockProvider) Generate(ctx context.Context, apiKey, system, prompt string) (string, error) {
	args := m.Called(ctx, apiKey, system, prompt)
	return args.String(0), args.Error(1)
}

type mapSecrets map[string]string

func (s mapSecrets) Lookup(_ context.Context, key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}
