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

package http

import (
	"context"

	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/tenant"
)

// ClaimSubject is the claim that carries the caller's user id.
const ClaimSubject = "sub"

// GetUserID returns the authenticated user of the request, if the token
// carried a well-formed subject.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := tenant.ClaimsFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetTenant returns the tenant of the operation. Requests that did not pass
// through TenantMiddleware have no tenant.
func GetTenant(ctx context.Context) tenant.Context {
	tc, _ := tenant.FromContext(ctx)
	return tc
}
