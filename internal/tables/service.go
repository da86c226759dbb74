package tables

import (
	"context"
	"fmt"
	"time"

	"ms-ordering/internal/feed"
	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"

	"github.com/google/uuid"
)

var (
	ErrTableNotFound  = utils.NotFound("table not found")
	ErrInvalidNumber  = utils.Invalid("invalid table number")
	ErrInvalidStatus  = utils.Invalid("invalid table status")
	ErrNumberConflict = utils.Conflict("an active table already uses this number")
)

type AdminStore interface {
	Store
	ListTables(ctx context.Context, restaurantID string) ([]models.Table, error)
	GetTable(ctx context.Context, restaurantID, id string) (*models.Table, error)
	CreateTable(ctx context.Context, table *models.Table) error
	UpdateAccess(ctx context.Context, restaurantID, id, token, qrCode string) (bool, error)
	UpdateStatus(ctx context.Context, restaurantID, id, status string) (bool, error)
}

// Service manages tables and their QR access for admins.
type Service struct {
	Store       AdminStore
	Bus         feed.Publisher
	BaseURL     string
	TokenLength int
	now         func() time.Time
}

func NewService(store AdminStore, bus feed.Publisher, baseURL string, tokenLength int) *Service {
	return &Service{Store: store, Bus: bus, BaseURL: baseURL, TokenLength: tokenLength, now: time.Now}
}

func (s *Service) List(ctx context.Context, restaurantID string) ([]models.Table, error) {
	tables, err := s.Store.ListTables(ctx, restaurantID)
	if err != nil {
		return nil, utils.Internal("failed to list tables", err)
	}
	return tables, nil
}

// Create adds an active table with a fresh access token.
func (s *Service) Create(ctx context.Context, restaurantID string, number float64) (*models.Table, error) {
	n, ok := ValidNumber(number)
	if !ok {
		return nil, ErrInvalidNumber
	}

	existing, err := s.Store.FindActiveTable(ctx, Query{Number: n, RestaurantID: restaurantID})
	if err != nil {
		return nil, utils.Internal("failed to check table number", err)
	}
	if existing != nil {
		return nil, ErrNumberConflict
	}

	token, qr, err := s.issueAccess(n)
	if err != nil {
		return nil, err
	}

	table := &models.Table{
		ID:           uuid.NewString(),
		Number:       n,
		QRCode:       qr,
		AccessToken:  &token,
		Status:       models.TableActive,
		RestaurantID: restaurantID,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.Store.CreateTable(ctx, table); err != nil {
		return nil, utils.Internal("failed to create table", err)
	}

	s.publish(feed.OpInsert, table)
	return table, nil
}

// RotateToken replaces the access token, invalidating printed QR codes.
func (s *Service) RotateToken(ctx context.Context, restaurantID, id string) (*models.Table, error) {
	table, err := s.get(ctx, restaurantID, id)
	if err != nil {
		return nil, err
	}

	token, qr, err := s.issueAccess(table.Number)
	if err != nil {
		return nil, err
	}

	updated, err := s.Store.UpdateAccess(ctx, restaurantID, id, token, qr)
	if err != nil {
		return nil, utils.Internal("failed to rotate table token", err)
	}
	if !updated {
		return nil, ErrTableNotFound
	}

	table.AccessToken = &token
	table.QRCode = qr
	s.publish(feed.OpUpdate, table)
	return table, nil
}

func (s *Service) SetStatus(ctx context.Context, restaurantID, id, status string) error {
	if status != models.TableActive && status != models.TableInactive {
		return ErrInvalidStatus
	}

	updated, err := s.Store.UpdateStatus(ctx, restaurantID, id, status)
	if err != nil {
		return utils.Internal("failed to update table status", err)
	}
	if !updated {
		return ErrTableNotFound
	}

	s.publish(feed.OpUpdate, &models.Table{ID: id, RestaurantID: restaurantID})
	return nil
}

// QRCode renders the table's current QR target as PNG.
func (s *Service) QRCode(ctx context.Context, restaurantID, id string, size int) ([]byte, error) {
	table, err := s.get(ctx, restaurantID, id)
	if err != nil {
		return nil, err
	}

	target := table.QRCode
	if table.AccessToken != nil {
		if target, err = BuildQRURL(s.BaseURL, table.Number, *table.AccessToken); err != nil {
			return nil, utils.Internal("failed to build table url", err)
		}
	}
	if target == "" {
		return nil, utils.Conflict("table has no access token")
	}

	png, err := QRCodePNG(target, size)
	if err != nil {
		return nil, utils.Internal("failed to render qr code", err)
	}
	return png, nil
}

func (s *Service) get(ctx context.Context, restaurantID, id string) (*models.Table, error) {
	table, err := s.Store.GetTable(ctx, restaurantID, id)
	if err != nil {
		return nil, utils.Internal("failed to load table", err)
	}
	if table == nil {
		return nil, ErrTableNotFound
	}
	return table, nil
}

func (s *Service) issueAccess(number int) (string, string, error) {
	token, err := NewAccessToken(s.TokenLength)
	if err != nil {
		return "", "", utils.Internal("failed to issue access token", err)
	}
	qr, err := BuildQRURL(s.BaseURL, number, token)
	if err != nil {
		return "", "", utils.Internal(fmt.Sprintf("failed to build url for table %d", number), err)
	}
	return token, qr, nil
}

func (s *Service) publish(op feed.Op, table *models.Table) {
	if s.Bus == nil {
		return
	}
	s.Bus.Publish(feed.ChangeEvent{
		Table:        feed.TableTables,
		Op:           op,
		RestaurantID: table.RestaurantID,
		RecordID:     table.ID,
		TableID:      table.ID,
	})
}
