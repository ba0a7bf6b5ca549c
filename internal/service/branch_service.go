package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

type SaveBranchRequest struct {
	BranchName string `json:"branch_name" binding:"required"`
}

type BranchService interface {
	CreateBranch(ctx context.Context, req SaveBranchRequest) (model.Branch, error)
	UpdateBranch(ctx context.Context, id uint, req SaveBranchRequest) (model.Branch, error)
	DeleteBranch(ctx context.Context, id uint) error
	GetBranch(ctx context.Context, id uint) (model.Branch, error)
	ListBranches(ctx context.Context, search string, page, limit int) ([]model.Branch, int64, error)
}

type branchService struct {
	branchRepo repository.BranchRepository
	recorder   recorder
}

func NewBranchService(branchRepo repository.BranchRepository, auditRepo repository.AuditRepository, notifier Notifier, log *zap.Logger) BranchService {
	return &branchService{branchRepo: branchRepo, recorder: newRecorder(auditRepo, notifier, log)}
}

func (s *branchService) checkName(ctx context.Context, name string, excludeID uint) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidf("branch_name is required")
	}
	taken, err := s.branchRepo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return "", fmt.Errorf("failed to check branch name: %w", err)
	}
	if taken {
		return "", conflictf("branch %q already exists", name)
	}
	return name, nil
}

func (s *branchService) CreateBranch(ctx context.Context, req SaveBranchRequest) (model.Branch, error) {
	name, err := s.checkName(ctx, req.BranchName, 0)
	if err != nil {
		return model.Branch{}, err
	}

	branch := model.Branch{BranchName: name}
	if err := s.branchRepo.Create(ctx, &branch); err != nil {
		return model.Branch{}, fmt.Errorf("failed to create branch: %w", err)
	}

	s.recorder.audit(ctx, model.ActionCreateBranch, branch.ID, branch.BranchName, req)
	s.recorder.notify("branches", EventCreated, branch.ID)
	return branch, nil
}

func (s *branchService) UpdateBranch(ctx context.Context, id uint, req SaveBranchRequest) (model.Branch, error) {
	branch, err := s.branchRepo.FindByID(ctx, id)
	if err != nil {
		return model.Branch{}, lookupError("branch", id, err)
	}
	name, err := s.checkName(ctx, req.BranchName, id)
	if err != nil {
		return model.Branch{}, err
	}

	branch.BranchName = name
	if err := s.branchRepo.Update(ctx, branch); err != nil {
		return model.Branch{}, fmt.Errorf("failed to update branch: %w", err)
	}

	s.recorder.audit(ctx, model.ActionUpdateBranch, branch.ID, branch.BranchName, req)
	s.recorder.notify("branches", EventUpdated, branch.ID)
	return *branch, nil
}

func (s *branchService) DeleteBranch(ctx context.Context, id uint) error {
	branch, err := s.branchRepo.FindByID(ctx, id)
	if err != nil {
		return lookupError("branch", id, err)
	}
	docs, err := s.branchRepo.CountDocuments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check branch documents: %w", err)
	}
	if docs > 0 {
		return conflictf("branch %d is referenced by %d document(s)", id, docs)
	}

	if err := s.branchRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete branch: %w", err)
	}

	s.recorder.audit(ctx, model.ActionDeleteBranch, id, branch.BranchName, map[string]uint{"deleted_id": id})
	s.recorder.notify("branches", EventDeleted, id)
	return nil
}

func (s *branchService) GetBranch(ctx context.Context, id uint) (model.Branch, error) {
	branch, err := s.branchRepo.FindByID(ctx, id)
	if err != nil {
		return model.Branch{}, lookupError("branch", id, err)
	}
	return *branch, nil
}

func (s *branchService) ListBranches(ctx context.Context, search string, page, limit int) ([]model.Branch, int64, error) {
	branches, total, err := s.branchRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch branches: %w", err)
	}
	if branches == nil {
		branches = []model.Branch{}
	}
	return branches, total, nil
}
