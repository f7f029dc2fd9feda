package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/platform/cache"
	"github.com/phrazzld/taskshare/internal/platform/logger"
	"github.com/phrazzld/taskshare/internal/store"
)

const shareServiceName = "share service"

// ShareService manages who a task is shared with. Only the task owner may
// change shares.
type ShareService interface {
	// Share grants the user registered under targetEmail the given permission
	// on the task. Sharing again with the same user updates the permission.
	Share(
		ctx context.Context,
		ownerID, taskID uuid.UUID,
		targetEmail string,
		permission domain.Permission,
	) (*domain.Share, error)

	// Unshare revokes targetUserID's access. Revoking a share that does not
	// exist succeeds.
	Unshare(ctx context.Context, ownerID, taskID, targetUserID uuid.UUID) error

	// ListShares returns the task's shares with display details of both
	// parties. Any user with access to the task may list them.
	ListShares(ctx context.Context, requesterID, taskID uuid.UUID) ([]domain.ShareDetails, error)
}

// shareServiceImpl implements the ShareService interface
type shareServiceImpl struct {
	stores store.Stores
	tx     store.Transactor
	cache  *cache.Cache
	logger *slog.Logger
}

var _ ShareService = (*shareServiceImpl)(nil)

// NewShareService creates a new ShareService.
// It returns an error if any of the required dependencies are nil.
func NewShareService(
	stores store.Stores,
	tx store.Transactor,
	listCache *cache.Cache,
	logger *slog.Logger,
) (ShareService, error) {
	if err := validateStores(stores); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if listCache == nil {
		listCache = cache.NewDisabled(logger)
	}

	return &shareServiceImpl{
		stores: stores,
		tx:     tx,
		cache:  listCache,
		logger: logger.With(slog.String("component", "share_service")),
	}, nil
}

// Share implements ShareService.Share
func (s *shareServiceImpl) Share(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	targetEmail string,
	permission domain.Permission,
) (*domain.Share, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var share *domain.Share
	err := s.tx.InTx(ctx, func(ctx context.Context, tx store.Stores) error {
		task, err := tx.Tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if task.OwnerID != ownerID {
			return fmt.Errorf("%w: only the owner can share a task", ErrForbidden)
		}
		if !permission.IsValid() {
			return domain.NewValidationError("permission", "must be one of: viewer editor", domain.ErrValidation)
		}

		email := strings.TrimSpace(targetEmail)
		if email == "" {
			return domain.NewValidationError("email", "is required", domain.ErrValidation)
		}
		target, err := tx.Users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if target.ID == task.OwnerID {
			return fmt.Errorf("%w: cannot share a task with its owner", ErrInvalidArgument)
		}

		share, err = domain.NewShare(task, target.ID, permission)
		if err != nil {
			return err
		}
		return tx.Shares.Upsert(ctx, share)
	})
	if err != nil {
		log.Debug("share rejected",
			slog.String("task_id", taskID.String()),
			slog.String("user_id", ownerID.String()),
			slog.String("error", err.Error()))
		return nil, TranslateError(shareServiceName, "Share", "failed to share task", err)
	}

	s.cache.InvalidateTaskLists(ctx, ownerID, share.SharedWithUserID)

	log.Info("task shared",
		slog.String("task_id", taskID.String()),
		slog.String("shared_with", share.SharedWithUserID.String()),
		slog.String("permission", string(share.Permission)))
	return share, nil
}

// Unshare implements ShareService.Unshare
func (s *shareServiceImpl) Unshare(ctx context.Context, ownerID, taskID, targetUserID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.tx.InTx(ctx, func(ctx context.Context, tx store.Stores) error {
		task, err := tx.Tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if task.OwnerID != ownerID {
			return fmt.Errorf("%w: only the owner can unshare a task", ErrForbidden)
		}
		return tx.Shares.Delete(ctx, taskID, targetUserID)
	})
	if err != nil {
		log.Debug("unshare rejected",
			slog.String("task_id", taskID.String()),
			slog.String("user_id", ownerID.String()),
			slog.String("error", err.Error()))
		return TranslateError(shareServiceName, "Unshare", "failed to unshare task", err)
	}

	s.cache.InvalidateTaskLists(ctx, ownerID, targetUserID)

	log.Info("task unshared",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", targetUserID.String()))
	return nil
}

// ListShares implements ShareService.ListShares
func (s *shareServiceImpl) ListShares(
	ctx context.Context,
	requesterID, taskID uuid.UUID,
) ([]domain.ShareDetails, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.stores.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, TranslateError(shareServiceName, "ListShares", "failed to load task", err)
	}

	shares, err := s.stores.Shares.ListByTask(ctx, taskID)
	if err != nil {
		log.Error("failed to list shares",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, TranslateError(shareServiceName, "ListShares", "failed to list shares", err)
	}

	if task.OwnerID != requesterID && !sharedWith(shares, requesterID) {
		return nil, ErrForbidden
	}

	summaries := make(map[uuid.UUID]domain.UserSummary, len(shares)+1)
	summary := func(id uuid.UUID) (domain.UserSummary, error) {
		if sum, ok := summaries[id]; ok {
			return sum, nil
		}
		user, err := s.stores.Users.GetByID(ctx, id)
		if err != nil {
			if store.IsNotFoundError(err) {
				return domain.UserSummary{ID: id}, nil
			}
			return domain.UserSummary{}, err
		}
		summaries[id] = user.Summary()
		return summaries[id], nil
	}

	owner, err := summary(task.OwnerID)
	if err != nil {
		return nil, TranslateError(shareServiceName, "ListShares", "failed to load owner", err)
	}

	details := make([]domain.ShareDetails, 0, len(shares))
	for _, share := range shares {
		target, err := summary(share.SharedWithUserID)
		if err != nil {
			return nil, TranslateError(shareServiceName, "ListShares", "failed to load share target", err)
		}
		details = append(details, domain.ShareDetails{
			Share:      *share,
			SharedWith: target,
			Owner:      owner,
		})
	}
	return details, nil
}

func sharedWith(shares []*domain.Share, userID uuid.UUID) bool {
	for _, share := range shares {
		if share.SharedWithUserID == userID {
			return true
		}
	}
	return false
}
