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
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/observabil/flowgate/internal/conf"
	"github.com/observabil/flowgate/internal/errs"
	"github.com/observabil/flowgate/internal/model"
	"github.com/observabil/flowgate/internal/repo"
	"github.com/observabil/flowgate/pkg/id"
	"github.com/observabil/flowgate/pkg/log"
)

// RequestService runs the project request workflow: a PROJECT_ADMIN-level
// user submits, only a SUPER_ADMIN resolves, and a resolved request is
// terminal.
// Approval provisions the project and its initial members in one step.
type RequestService struct {
	requestRepo repo.IRequestRepository
	projectRepo repo.IProjectRepository
	memberRepo  repo.IMemberRepository
	userRepo    repo.IUserRepository
	resolver    *RoleResolver
	notifier    *resty.Client
	webhookURL  string
}

func NewRequestService(requestRepo repo.IRequestRepository, projectRepo repo.IProjectRepository, memberRepo repo.IMemberRepository, userRepo repo.IUserRepository, resolver *RoleResolver, webhook conf.Webhook) *RequestService {
	var client *resty.Client
	if webhook.URL != "" {
		client = resty.New().SetTimeout(5 * time.Second).SetRetryCount(2)
	}
	return &RequestService{
		requestRepo: requestRepo,
		projectRepo: projectRepo,
		memberRepo:  memberRepo,
		userRepo:    userRepo,
		resolver:    resolver,
		notifier:    client,
		webhookURL:  webhook.URL,
	}
}

// Submit files a new project request. Only a PROJECT_ADMIN-level user may
// submit; a SUPER_ADMIN creates projects directly and is rejected here. The
// requester is recorded and the ticket code is generated server side.
func (s *RequestService) Submit(ctx context.Context, requesterId string, req *model.SubmitRequestReq) (*model.ProjectRequest, error) {
	name := strings.TrimSpace(req.ProjectName)
	if name == "" {
		return nil, fmt.Errorf("project name is required: %w", errs.ErrNotFound)
	}
	requester, err := s.userRepo.GetUser(ctx, requesterId)
	if err != nil {
		return nil, err
	}
	if requester.UserLevel != model.UserLevelProjectAdmin {
		return nil, errs.ErrPermissionDenied
	}

	users, err := json.Marshal(req.RequestedUsers)
	if err != nil {
		return nil, err
	}
	request := &model.ProjectRequest{
		RequestId:      id.UUID(),
		TicketCode:     id.ShortID(),
		ProjectName:    name,
		Justification:  req.Justification,
		RequestedUsers: users,
		Status:         model.RequestPending,
		RequesterId:    requesterId,
	}
	if err := s.requestRepo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}
	s.notify(ctx, request, "submitted")
	return request, nil
}

// List returns requests, optionally filtered by status. SUPER_ADMIN sees
// everything; other users see only their own submissions.
func (s *RequestService) List(ctx context.Context, actorId string, status model.ProjectRequestStatus) ([]model.ProjectRequest, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("status %s: %w", status, errs.ErrNotFound)
	}
	rows, err := s.requestRepo.ListRequests(ctx, status)
	if err != nil {
		return nil, err
	}
	super, err := s.resolver.IsSuperAdmin(ctx, actorId)
	if err != nil {
		return nil, err
	}
	if super {
		return rows, nil
	}
	own := rows[:0]
	for _, r := range rows {
		if r.RequesterId == actorId {
			own = append(own, r)
		}
	}
	return own, nil
}

// Get returns one request. Visible to its requester and to SUPER_ADMIN.
func (s *RequestService) Get(ctx context.Context, actorId, requestId string) (*model.ProjectRequest, error) {
	request, err := s.requestRepo.GetRequest(ctx, requestId)
	if err != nil {
		return nil, err
	}
	if request.RequesterId != actorId {
		super, err := s.resolver.IsSuperAdmin(ctx, actorId)
		if err != nil {
			return nil, err
		}
		if !super {
			return nil, errs.ErrPermissionDenied
		}
	}
	return request, nil
}

// Resolve moves a pending request to APPROVED or REJECTED. Only a
// SUPER_ADMIN may resolve. Approval provisions the project with the
// requester as protected creator-admin and the requested users as readers.
// Resolving a terminal request yields ErrAlreadyResolved.
func (s *RequestService) Resolve(ctx context.Context, actorId, requestId string, req *model.ResolveRequestReq) (*model.ProjectRequest, error) {
	super, err := s.resolver.IsSuperAdmin(ctx, actorId)
	if err != nil {
		return nil, err
	}
	if !super {
		return nil, errs.ErrPermissionDenied
	}
	if req.Status != model.RequestApproved && req.Status != model.RequestRejected {
		return nil, fmt.Errorf("status %s: %w", req.Status, errs.ErrNotFound)
	}

	request, err := s.requestRepo.GetRequest(ctx, requestId)
	if err != nil {
		return nil, err
	}
	if request.Status != model.RequestPending {
		return nil, errs.ErrAlreadyResolved
	}

	now := time.Now()
	ok, err := s.requestRepo.Resolve(ctx, requestId, req.Status, req.RejectionReason, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another admin resolved it between read and update.
		return nil, errs.ErrAlreadyResolved
	}

	if req.Status == model.RequestApproved {
		if err := s.provision(ctx, request); err != nil {
			// The request stays APPROVED; provisioning is retried manually.
			log.Errorf("provisioning project for request %s failed: %v", requestId, err)
			return nil, err
		}
	}

	resolved, err := s.requestRepo.GetRequest(ctx, requestId)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, resolved, strings.ToLower(string(req.Status)))
	return resolved, nil
}

func (s *RequestService) provision(ctx context.Context, request *model.ProjectRequest) error {
	project := &model.Project{
		ProjectId:   id.UUID(),
		Name:        request.ProjectName,
		Description: request.Justification,
		CreatedBy:   request.RequesterId,
	}

	members := []model.ProjectMember{{
		ProjectId:      project.ProjectId,
		UserId:         request.RequesterId,
		CanRead:        true,
		CanRun:         true,
		CanEdit:        true,
		IsProjectAdmin: true,
		IsCreator:      true,
	}}

	var requested []string
	if len(request.RequestedUsers) > 0 {
		if err := json.Unmarshal(request.RequestedUsers, &requested); err != nil {
			return err
		}
	}
	if len(requested) > 0 {
		// Only users that actually exist become members; unknown ids in
		// the request are skipped.
		users, err := s.userRepo.GetUsers(ctx, requested)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.UserId == request.RequesterId {
				continue
			}
			members = append(members, model.ProjectMember{
				ProjectId: project.ProjectId,
				UserId:    u.UserId,
				CanRead:   true,
			})
		}
	}

	return s.projectRepo.CreateProjectWithMembers(ctx, project, members)
}

// notify posts the request transition to the configured webhook. Failures
// are logged, never surfaced.
func (s *RequestService) notify(ctx context.Context, request *model.ProjectRequest, event string) {
	if s.notifier == nil {
		return
	}
	payload := map[string]any{
		"event":       "project_request." + event,
		"requestId":   request.RequestId,
		"ticketCode":  request.TicketCode,
		"projectName": request.ProjectName,
		"requesterId": request.RequesterId,
		"status":      request.Status,
	}
	_, err := s.notifier.R().SetContext(ctx).SetBody(payload).Post(s.webhookURL)
	if err != nil {
		log.Warnf("webhook notify for request %s failed: %v", request.RequestId, err)
	}
}
