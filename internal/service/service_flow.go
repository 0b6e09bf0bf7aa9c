// Copyright 2025 Flowgate Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package service

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/observabil/flowgate/internal/errs"
	"github.com/observabil/flowgate/internal/model"
	"github.com/observabil/flowgate/internal/repo"
	"github.com/observabil/flowgate/pkg/id"
	"github.com/observabil/flowgate/pkg/metrics"
	"gorm.io/datatypes"
)

// FlowService owns flow reads and the save pipeline.
type FlowService struct {
	flowRepo       repo.IFlowRepository
	permissionRepo repo.IPermissionRepository
	resolver       *RoleResolver
}

func NewFlowService(flowRepo repo.IFlowRepository, permissionRepo repo.IPermissionRepository, resolver *RoleResolver) *FlowService {
	return &FlowService{flowRepo: flowRepo, permissionRepo: permissionRepo, resolver: resolver}
}

// GetFlow returns the flow with the caller's effective capabilities
// stamped in. Requires read capability.
func (s *FlowService) GetFlow(ctx context.Context, userId, flowId string) (*model.FlowRead, error) {
	flow, err := s.flowRepo.GetFlow(ctx, flowId)
	if err != nil {
		return nil, err
	}
	cap, err := s.resolver.Capability(ctx, userId, model.ResourceRef{ProjectId: flow.ProjectId, FlowId: flowId})
	if err != nil {
		return nil, err
	}
	if !cap.CanRead {
		return nil, errs.ErrPermissionDenied
	}
	return model.NewFlowRead(flow, cap), nil
}

// ListFlows returns the flows of a project the caller can read. Flows the
// caller lacks read capability on are filtered out, not errored on.
func (s *FlowService) ListFlows(ctx context.Context, userId, projectId string) ([]*model.FlowRead, error) {
	flows, err := s.flowRepo.ListFlowsByProject(ctx, projectId)
	if err != nil {
		return nil, err
	}
	out := make([]*model.FlowRead, 0, len(flows))
	for i := range flows {
		f := &flows[i]
		cap, err := s.resolver.Capability(ctx, userId, model.ResourceRef{ProjectId: projectId, FlowId: f.FlowId})
		if err != nil {
			return nil, err
		}
		if !cap.CanRead {
			continue
		}
		out = append(out, model.NewFlowRead(f, cap))
	}
	return out, nil
}

// CreateFlow creates a flow in a project. Requires edit capability on the
// project.
func (s *FlowService) CreateFlow(ctx context.Context, userId, projectId, name, description string, data datatypes.JSON) (*model.FlowRead, error) {
	cap, err := s.resolver.Capability(ctx, userId, model.ResourceRef{ProjectId: projectId})
	if err != nil {
		return nil, err
	}
	if !cap.CanEdit {
		return nil, errs.ErrPermissionDenied
	}
	flow := &model.Flow{
		FlowId:      id.UUID(),
		ProjectId:   projectId,
		Name:        name,
		Description: description,
		Data:        data,
	}
	if err := s.flowRepo.CreateFlow(ctx, flow); err != nil {
		return nil, err
	}
	return model.NewFlowRead(flow, cap), nil
}

// DeleteFlow removes a flow and every grant on it. Requires delete
// capability.
func (s *FlowService) DeleteFlow(ctx context.Context, userId, flowId string) error {
	flow, err := s.flowRepo.GetFlow(ctx, flowId)
	if err != nil {
		return err
	}
	cap, err := s.resolver.Capability(ctx, userId, model.ResourceRef{ProjectId: flow.ProjectId, FlowId: flowId})
	if err != nil {
		return err
	}
	if !cap.CanDelete {
		return errs.ErrPermissionDenied
	}
	if err := s.flowRepo.DeleteFlow(ctx, flowId); err != nil {
		return err
	}
	return s.permissionRepo.RevokeAllForResource(ctx, flowId, model.ResourceTypeFlow)
}

// CheckRun reports whether the caller may run the flow. Run does not care
// about the edit lock.
func (s *FlowService) CheckRun(ctx context.Context, userId, flowId string) (bool, error) {
	flow, err := s.flowRepo.GetFlow(ctx, flowId)
	if err != nil {
		return false, err
	}
	cap, err := s.resolver.Capability(ctx, userId, model.ResourceRef{ProjectId: flow.ProjectId, FlowId: flowId})
	if err != nil {
		return false, err
	}
	return cap.CanRun, nil
}

// Save applies a partial update to a flow. The pipeline runs strictly in
// order: lock check, capability check, structural no-op detection, then a
// revision-guarded commit. A foreign lock rejects before capabilities are
// even resolved, so the caller learns about the lock, not their
// permissions. A save identical to the stored content returns the current
// row untouched, without bumping the revision.
func (s *FlowService) Save(ctx context.Context, userId, flowId string, req *model.SaveFlowReq) (*model.FlowRead, error) {
	flow, err := s.flowRepo.GetFlow(ctx, flowId)
	if err != nil {
		return nil, err
	}
	if flow.Locked && (flow.LockedBy == nil || *flow.LockedBy != userId) {
		metrics.SaveTotal.WithLabelValues("locked").Inc()
		return nil, errs.ErrLockedByOther
	}
	cap, err := s.resolver.Capability(ctx, userId, model.ResourceRef{ProjectId: flow.ProjectId, FlowId: flowId})
	if err != nil {
		return nil, err
	}
	if !cap.CanEdit {
		metrics.SaveTotal.WithLabelValues("denied").Inc()
		return nil, errs.ErrPermissionDenied
	}

	updates := map[string]any{}
	if req.Name != nil && *req.Name != flow.Name {
		updates["name"] = *req.Name
	}
	if req.Description != nil && *req.Description != flow.Description {
		updates["description"] = *req.Description
	}
	if len(req.Data) > 0 && !jsonEqual(req.Data, flow.Data) {
		updates["data"] = req.Data
	}
	if len(updates) == 0 {
		metrics.SaveTotal.WithLabelValues("noop").Inc()
		return model.NewFlowRead(flow, cap), nil
	}

	ok, err := s.flowRepo.CommitContent(ctx, flowId, flow.Revision, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.SaveTotal.WithLabelValues("conflict").Inc()
		return nil, errs.ErrConflictingUpdate
	}

	metrics.SaveTotal.WithLabelValues("committed").Inc()
	saved, err := s.flowRepo.GetFlow(ctx, flowId)
	if err != nil {
		return nil, err
	}
	return model.NewFlowRead(saved, cap), nil
}

// jsonEqual compares two JSON documents structurally, so key order and
// whitespace differences do not count as changes.
func jsonEqual(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}
