package repository

import (
	"context"
	"errors"
	"time"

	"rentory/internal/domain"

	"gorm.io/gorm"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

type reservationModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	ServiceID        string     `gorm:"column:service_id;index"`
	StartDate        time.Time  `gorm:"column:start_date;index"`
	EndDate          time.Time  `gorm:"column:end_date"`
	QuantityReserved int        `gorm:"column:quantity_reserved"`
	Type             string     `gorm:"column:type"`
	Status           string     `gorm:"column:status;index"`
	ExpiresAt        *time.Time `gorm:"column:expires_at"`
	CustomerID       *string    `gorm:"column:customer_id"`
	Notes            *string    `gorm:"column:notes"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
	CancelledAt      *time.Time `gorm:"column:cancelled_at"`
}

func (reservationModel) TableName() string { return "reservations" }

func toDomainReservation(m reservationModel) *domain.Reservation {
	var notes string
	if m.Notes != nil {
		notes = *m.Notes
	}

	return &domain.Reservation{
		ID:               m.ID,
		ServiceID:        m.ServiceID,
		StartDate:        m.StartDate,
		EndDate:          m.EndDate,
		QuantityReserved: m.QuantityReserved,
		Type:             domain.ReservationType(m.Type),
		Status:           domain.ReservationStatus(m.Status),
		ExpiresAt:        m.ExpiresAt,
		CustomerID:       m.CustomerID,
		Notes:            notes,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		CancelledAt:      m.CancelledAt,
	}
}

func toReservationModel(r *domain.Reservation) reservationModel {
	var notes *string
	if r.Notes != "" {
		v := r.Notes
		notes = &v
	}

	return reservationModel{
		ID:               r.ID,
		ServiceID:        r.ServiceID,
		StartDate:        r.StartDate,
		EndDate:          r.EndDate,
		QuantityReserved: r.QuantityReserved,
		Type:             string(r.Type),
		Status:           string(r.Status),
		ExpiresAt:        r.ExpiresAt,
		CustomerID:       r.CustomerID,
		Notes:            notes,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		CancelledAt:      r.CancelledAt,
	}
}

func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	m := toReservationModel(res)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*res = *toDomainReservation(m)
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var m reservationModel
	tx := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, tx.Error
	}
	return toDomainReservation(m), nil
}

// ListOverlapping returns reservations for the service whose half-open
// interval intersects [start, end), excluding cancelled and no-show rows.
// Soft-hold expiry is evaluated by the caller against an injected clock.
func (r *ReservationRepository) ListOverlapping(ctx context.Context, serviceID string, start, end time.Time) ([]domain.Reservation, error) {
	var rows []reservationModel
	tx := r.db.WithContext(ctx).
		Where("service_id = ? AND start_date < ? AND end_date > ? AND status NOT IN ?",
			serviceID, end, start,
			[]string{string(domain.StatusCancelled), string(domain.StatusNoShow)}).
		Order("start_date ASC, id ASC").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Reservation, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainReservation(m))
	}
	return out, nil
}

// UpdateStatusIf moves the reservation to next only when its current status
// still equals expected. Returns false when the conditional write matched no
// row, which means a concurrent writer got there first.
func (r *ReservationRepository) UpdateStatusIf(ctx context.Context, id string, expected, next domain.ReservationStatus, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     string(next),
		"updated_at": at,
	}
	if next == domain.StatusCancelled {
		updates["cancelled_at"] = at
	}

	tx := r.db.WithContext(ctx).
		Model(&reservationModel{}).
		Where("id = ? AND status = ?", id, string(expected)).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// ListExpiredHolds returns soft holds that still occupy capacity on paper but
// whose expiry has passed.
func (r *ReservationRepository) ListExpiredHolds(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	var rows []reservationModel
	tx := r.db.WithContext(ctx).
		Where("type = ? AND status IN ? AND expires_at <= ?",
			string(domain.TypeSoftHold),
			[]string{string(domain.StatusPending), string(domain.StatusConfirmed)},
			now).
		Order("expires_at ASC, id ASC").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Reservation, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainReservation(m))
	}
	return out, nil
}

// ListFilter narrows and paginates reservation listings.
type ListFilter struct {
	ServiceID string
	Statuses  []domain.ReservationStatus
	Types     []domain.ReservationType
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

func (r *ReservationRepository) List(ctx context.Context, f ListFilter) ([]domain.Reservation, int64, error) {
	q := r.db.WithContext(ctx).Model(&reservationModel{})

	if f.ServiceID != "" {
		q = q.Where("service_id = ?", f.ServiceID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		q = q.Where("status IN ?", statuses)
	}
	if len(f.Types) > 0 {
		types := make([]string, 0, len(f.Types))
		for _, t := range f.Types {
			types = append(types, string(t))
		}
		q = q.Where("type IN ?", types)
	}
	// Date range filters by interval overlap, same test as availability.
	if f.To != nil {
		q = q.Where("start_date < ?", *f.To)
	}
	if f.From != nil {
		q = q.Where("end_date > ?", *f.From)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var rows []reservationModel
	tx := q.Order("start_date ASC, id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows)
	if tx.Error != nil {
		return nil, 0, tx.Error
	}

	out := make([]domain.Reservation, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainReservation(m))
	}
	return out, total, nil
}
