package sharemodule

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/events"
	"github.com/netshelf/netshelf/internal/logger"
	"github.com/netshelf/netshelf/internal/smb"
	"github.com/netshelf/netshelf/internal/utils"
	"gorm.io/gorm"
)

// ErrShareNotFound is returned when a share ID does not exist.
var ErrShareNotFound = errors.New("share not found")

// Manager handles network share operations and keeps the in-memory status
// cache. Status reads never touch the network; CheckShare refreshes the
// cache by attempting a real connection.
type Manager struct {
	db        *gorm.DB
	eventBus  events.EventBus
	connector smb.Connector

	statusMu sync.RWMutex
	status   map[string]smb.ShareStatus
}

// NewManager creates a new share manager
func NewManager(db *gorm.DB, eventBus events.EventBus, connector smb.Connector) *Manager {
	return &Manager{
		db:        db,
		eventBus:  eventBus,
		connector: connector,
		status:    make(map[string]smb.ShareStatus),
	}
}

// GetShare retrieves a share by ID
func (m *Manager) GetShare(ctx context.Context, id string) (*database.NetworkShare, error) {
	var share database.NetworkShare
	if err := m.db.WithContext(ctx).Where("id = ?", id).First(&share).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrShareNotFound, id)
		}
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	return &share, nil
}

// CreateShare creates a new network share
func (m *Manager) CreateShare(ctx context.Context, share *database.NetworkShare) error {
	if share.Name == "" {
		return fmt.Errorf("share name is required")
	}
	if share.ID == "" {
		share.ID = utils.GenerateUUID()
	}

	if err := m.db.WithContext(ctx).Create(share).Error; err != nil {
		return fmt.Errorf("failed to create share: %w", err)
	}

	m.setStatus(share.ID, smb.ShareStatus{State: smb.StateUnknown})

	if m.eventBus != nil {
		event := events.NewEventWithData(
			events.EventShareCreated,
			"sharemodule",
			"Share created",
			fmt.Sprintf("Network share created: %s", share.Name),
			map[string]interface{}{
				"shareId": share.ID,
				"name":    share.Name,
			},
		)
		m.eventBus.PublishAsync(event)
	}

	return nil
}

// UpdateShare updates a network share
func (m *Manager) UpdateShare(ctx context.Context, id string, updates map[string]interface{}) error {
	result := m.db.WithContext(ctx).Model(&database.NetworkShare{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update share: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrShareNotFound, id)
	}

	// Connection details may have changed; any cached health is stale.
	m.setStatus(id, smb.ShareStatus{State: smb.StateUnknown})
	return nil
}

// DeleteShare deletes a network share and its library folders
func (m *Manager) DeleteShare(ctx context.Context, id string) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var folderIDs []string
		if err := tx.Model(&database.LibraryFolder{}).Where("share_id = ?", id).Pluck("id", &folderIDs).Error; err != nil {
			return fmt.Errorf("failed to list folders for share: %w", err)
		}
		if len(folderIDs) > 0 {
			if err := tx.Where("folder_id IN ?", folderIDs).Delete(&database.LibraryFile{}).Error; err != nil {
				return fmt.Errorf("failed to delete file indexes: %w", err)
			}
			if err := tx.Where("share_id = ?", id).Delete(&database.LibraryFolder{}).Error; err != nil {
				return fmt.Errorf("failed to delete folders: %w", err)
			}
		}

		result := tx.Where("id = ?", id).Delete(&database.NetworkShare{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete share: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrShareNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.statusMu.Lock()
	delete(m.status, id)
	m.statusMu.Unlock()

	if m.eventBus != nil {
		event := events.NewEventWithData(
			events.EventShareDeleted,
			"sharemodule",
			"Share deleted",
			fmt.Sprintf("Network share deleted: %s", id),
			map[string]interface{}{"shareId": id},
		)
		m.eventBus.PublishAsync(event)
	}

	return nil
}

// ListShares lists all network shares
func (m *Manager) ListShares(ctx context.Context) ([]*database.NetworkShare, error) {
	var shares []*database.NetworkShare
	if err := m.db.WithContext(ctx).Order("name").Find(&shares).Error; err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	return shares, nil
}

// Connect opens a session to the share with the given ID. It satisfies the
// scanner's share resolver: unknown IDs map to ErrShareNotFound.
func (m *Manager) Connect(ctx context.Context, shareID string) (smb.Session, error) {
	share, err := m.GetShare(ctx, shareID)
	if err != nil {
		return nil, err
	}

	session, err := m.connector.Connect(ctx, share)
	if err != nil {
		m.markOffline(shareID, err)
		return nil, err
	}

	m.markOnline(shareID)
	return session, nil
}

// Status returns the cached status for a share. Shares never checked report
// StateUnknown.
func (m *Manager) Status(shareID string) smb.ShareStatus {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()

	status, ok := m.status[shareID]
	if !ok {
		return smb.ShareStatus{State: smb.StateUnknown}
	}
	return status
}

// SetStatus overrides the cached status for a share. Used by external
// health checkers that probe shares out of band.
func (m *Manager) SetStatus(ctx context.Context, shareID string, status smb.ShareStatus) error {
	if _, err := m.GetShare(ctx, shareID); err != nil {
		return err
	}
	m.transition(shareID, status)
	return nil
}

// CheckShare refreshes the cached status by attempting a connection.
func (m *Manager) CheckShare(ctx context.Context, shareID string) (smb.ShareStatus, error) {
	share, err := m.GetShare(ctx, shareID)
	if err != nil {
		return smb.ShareStatus{}, err
	}

	m.setStatus(shareID, smb.ShareStatus{State: smb.StateChecking})

	session, err := m.connector.Connect(ctx, share)
	if err != nil {
		m.markOffline(shareID, err)
		return m.Status(shareID), nil
	}
	session.Close()

	m.markOnline(shareID)
	return m.Status(shareID), nil
}

// CheckAllShares refreshes the cached status of every share.
func (m *Manager) CheckAllShares(ctx context.Context) error {
	shares, err := m.ListShares(ctx)
	if err != nil {
		return err
	}
	for _, share := range shares {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := m.CheckShare(ctx, share.ID); err != nil {
			logger.Warn("Failed to check share %s: %v", share.ID, err)
		}
	}
	return nil
}

func (m *Manager) markOnline(shareID string) {
	m.transition(shareID, smb.ShareStatus{State: smb.StateOnline})
}

func (m *Manager) markOffline(shareID string, cause error) {
	status := smb.ShareStatus{State: smb.StateOffline}
	if cause != nil {
		status.Reason = cause.Error()
	}
	m.transition(shareID, status)
}

func (m *Manager) setStatus(shareID string, status smb.ShareStatus) {
	m.statusMu.Lock()
	m.status[shareID] = status
	m.statusMu.Unlock()
}

// transition updates the cache and publishes a status change event when the
// state actually changed.
func (m *Manager) transition(shareID string, status smb.ShareStatus) {
	m.statusMu.Lock()
	previous := m.status[shareID]
	m.status[shareID] = status
	m.statusMu.Unlock()

	if previous.State == status.State || m.eventBus == nil {
		return
	}

	event := events.NewEventWithData(
		events.EventShareStatusChanged,
		"sharemodule",
		"Share status changed",
		fmt.Sprintf("Share %s: %s -> %s", shareID, previous.State, status.State),
		map[string]interface{}{
			"share_id":  shareID,
			"old_state": string(previous.State),
			"new_state": string(status.State),
			"reason":    status.Reason,
		},
	)
	m.eventBus.PublishAsync(event)
}
