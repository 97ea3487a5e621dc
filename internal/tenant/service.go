// Copyright 2026 The Gixat Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/husainf4l/gixat2-sub001/internal/audit"
)

// DefaultCacheSize is the number of organizations kept by the read cache.
const DefaultCacheSize = 256

// Service provides organization management
type Service struct {
	repo        Repository
	cache       *lru.Cache[uuid.UUID, *Organization]
	auditLogger audit.Logger
}

// NewService creates a new organization service
func NewService(repo Repository, auditLogger audit.Logger, cacheSize int) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[uuid.UUID, *Organization](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create organization cache: %w", err)
	}

	return &Service{
		repo:        repo,
		cache:       cache,
		auditLogger: auditLogger,
	}, nil
}

// CreateOrganization creates a new organization
func (s *Service) CreateOrganization(ctx context.Context, name string) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate organization id: %w", err)
	}

	org := &Organization{
		ID:        id,
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeOrganizationCreated,
		TenantID: org.ID.String(),
		Resource: org.Name,
	})

	return org, nil
}

// GetOrganization retrieves an organization by ID. The result is the
// caller's own copy.
func (s *Service) GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error) {
	if org, ok := s.cache.Get(id); ok {
		cp := *org
		return &cp, nil
	}

	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cached := *org
	s.cache.Add(id, &cached)
	return org, nil
}

// Current returns the organization of the operation's tenant.
func (s *Service) Current(ctx context.Context, tc Context) (*Organization, error) {
	id, ok := tc.OrganizationID()
	if !ok {
		return nil, ErrNoTenant
	}
	return s.GetOrganization(ctx, id)
}

// ListOrganizations lists organizations with pagination
func (s *Service) ListOrganizations(ctx context.Context, limit, offset int) ([]*Organization, error) {
	return s.repo.List(ctx, limit, offset)
}
