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

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClaimOrganizationID is the claim that carries the caller's organization.
const ClaimOrganizationID = "OrganizationId"

// Context is the tenant of one logical operation.
//
// The zero value carries no tenant. A Context without a tenant never means
// "all tenants": tenant-owned reads made with it return nothing.
type Context struct {
	id    uuid.UUID
	valid bool
}

// None returns a Context without a tenant.
func None() Context {
	return Context{}
}

// Of returns a Context for the given organization. uuid.Nil yields None.
func Of(id uuid.UUID) Context {
	if id == uuid.Nil {
		return Context{}
	}
	return Context{id: id, valid: true}
}

// OrganizationID returns the tenant, if any.
func (c Context) OrganizationID() (uuid.UUID, bool) {
	return c.id, c.valid
}

// IsSet reports whether the Context carries a tenant.
func (c Context) IsSet() bool {
	return c.valid
}

func (c Context) String() string {
	if !c.valid {
		return "none"
	}
	return c.id.String()
}

// FromClaims resolves the tenant from an already verified claims set.
// A missing, non-string or unparseable claim resolves to None.
func FromClaims(claims jwt.MapClaims) Context {
	raw, ok := claims[ClaimOrganizationID]
	if !ok {
		return None()
	}
	s, ok := raw.(string)
	if !ok {
		return None()
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return None()
	}
	return Of(id)
}

// Resolver derives the tenant of the in-flight operation.
type Resolver interface {
	Resolve(ctx context.Context) Context
}

// ClaimsResolver resolves the tenant from the claims the authentication
// layer placed on the context.
type ClaimsResolver struct{}

// Resolve implements Resolver.
func (ClaimsResolver) Resolve(ctx context.Context) Context {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return None()
	}
	return FromClaims(claims)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) Context

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context) Context {
	return f(ctx)
}

type claimsKey struct{}

type operationKey struct{}

// WithClaims stores verified claims on the context.
func WithClaims(ctx context.Context, claims jwt.MapClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the verified claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(jwt.MapClaims)
	return claims, ok && claims != nil
}

// WithOperation marks ctx as a caller-facing operation resolved to tc.
func WithOperation(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, operationKey{}, tc)
}

// FromContext returns the tenant of the caller-facing operation. The second
// result is false for system code paths that never went through WithOperation.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(operationKey{}).(Context)
	return tc, ok
}
