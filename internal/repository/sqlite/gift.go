package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/gift-registry/internal/apperror"
	"github.com/sakif/gift-registry/internal/model"
	"github.com/sakif/gift-registry/internal/repository"
)

// GiftStore implements repository.GiftRepository over the shared
// connection pool.
type GiftStore struct {
	conn *sql.DB
}

var _ repository.GiftRepository = (*GiftStore)(nil)

const giftColumns = `id, name, description, image_path, approximate_price, currency,
	purchase_links, is_taken, taken_by, hide_reserver_name, created_at, updated_at`

// Create inserts a new gift. The ID (xid: 20 chars, URL-safe, time-sortable)
// and timestamps are generated here and written back onto the passed struct.
func (s *GiftStore) Create(ctx context.Context, gift *model.Gift) error {
	gift.ID = xid.New().String()

	now := time.Now()
	gift.CreatedAt = now
	gift.UpdatedAt = now

	links, err := encodeLinks(gift.PurchaseLinks)
	if err != nil {
		return fmt.Errorf("sqlite: creating gift: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO gifts (id, name, description, image_path, approximate_price,
			currency, purchase_links, is_taken, taken_by, hide_reserver_name,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, NULL, 0, ?, ?)`,
		gift.ID,
		gift.Name,
		gift.Description,
		gift.ImagePath,
		gift.ApproximatePrice,
		string(gift.Currency),
		links,
		gift.CreatedAt,
		gift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating gift: %w", err)
	}

	return nil
}

// GetByID retrieves a single gift. sql.ErrNoRows is translated to the
// domain's NotFound — the handler turns that into a 404.
func (s *GiftStore) GetByID(ctx context.Context, id string) (*model.Gift, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+giftColumns+` FROM gifts WHERE id = ?`, id)

	gift, err := scanGift(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("gift", id)
		}
		return nil, fmt.Errorf("sqlite: getting gift %s: %w", id, err)
	}

	return gift, nil
}

// List retrieves gifts filtered by reservation state.
//
// Ordering matches what visitors expect on the page: available gifts (and
// the unfiltered list) alphabetically, taken gifts by most recent
// reservation first.
func (s *GiftStore) List(ctx context.Context, filter repository.StatusFilter) ([]model.Gift, error) {
	query := `SELECT ` + giftColumns + ` FROM gifts ORDER BY name ASC`
	switch filter {
	case repository.FilterAvailable:
		query = `SELECT ` + giftColumns + ` FROM gifts WHERE is_taken = 0 ORDER BY name ASC`
	case repository.FilterTaken:
		query = `SELECT ` + giftColumns + ` FROM gifts WHERE is_taken = 1 ORDER BY updated_at DESC`
	}

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing gifts: %w", err)
	}
	defer rows.Close()

	gifts := []model.Gift{}
	for rows.Next() {
		gift, err := scanGift(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning gift row: %w", err)
		}
		gifts = append(gifts, *gift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating gifts: %w", err)
	}

	return gifts, nil
}

// Update writes the descriptive fields of a gift. Reservation state is
// deliberately not touched here — it only changes through Reserve and
// Unreserve, which carry the state-machine preconditions.
func (s *GiftStore) Update(ctx context.Context, gift *model.Gift) error {
	gift.UpdatedAt = time.Now()

	links, err := encodeLinks(gift.PurchaseLinks)
	if err != nil {
		return fmt.Errorf("sqlite: updating gift %s: %w", gift.ID, err)
	}

	result, err := s.conn.ExecContext(ctx,
		`UPDATE gifts
		 SET name = ?, description = ?, image_path = ?, approximate_price = ?,
		     currency = ?, purchase_links = ?, updated_at = ?
		 WHERE id = ?`,
		gift.Name,
		gift.Description,
		gift.ImagePath,
		gift.ApproximatePrice,
		string(gift.Currency),
		links,
		gift.UpdatedAt,
		gift.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating gift %s: %w", gift.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("gift", gift.ID)
	}

	return nil
}

// Delete removes a gift. Gifts have no dependents, so this is an
// unconditional hard delete.
func (s *GiftStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM gifts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting gift %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("gift", id)
	}

	return nil
}

// Reserve transitions a gift from Available to Taken.
//
// The precondition lives inside the UPDATE's WHERE clause, so two concurrent
// reservations can never both succeed: SQLite applies the statements one at
// a time, the second one matches zero rows. A read-check followed by an
// unconditional write would leave a window between the check and the write.
//
// Zero rows affected means either "no such gift" or "already taken"; a
// follow-up read disambiguates so the caller gets the right error.
func (s *GiftStore) Reserve(ctx context.Context, id, takenBy string, hideReserverName bool) (*model.Gift, error) {
	result, err := s.conn.ExecContext(ctx,
		`UPDATE gifts
		 SET is_taken = 1, taken_by = ?, hide_reserver_name = ?, updated_at = ?
		 WHERE id = ? AND is_taken = 0`,
		takenBy,
		boolToInt(hideReserverName),
		time.Now(),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reserving gift %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return s.explainGiftConflict(ctx, id, apperror.AlreadyTaken(id))
	}

	return s.GetByID(ctx, id)
}

// Unreserve transitions a gift from Taken back to Available, clearing the
// reserver and resetting the privacy flag. Same conditional-update shape as
// Reserve: unreserving an available gift is an error, not a no-op.
func (s *GiftStore) Unreserve(ctx context.Context, id string) (*model.Gift, error) {
	result, err := s.conn.ExecContext(ctx,
		`UPDATE gifts
		 SET is_taken = 0, taken_by = NULL, hide_reserver_name = 0, updated_at = ?
		 WHERE id = ? AND is_taken = 1`,
		time.Now(),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: unreserving gift %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return s.explainGiftConflict(ctx, id, apperror.Conflict(
			fmt.Sprintf("gift %s is not reserved", id)))
	}

	return s.GetByID(ctx, id)
}

// UnreserveBy transitions Taken → Available only when the stored reserver
// matches. Both preconditions ride in the WHERE clause, so a claim that has
// gone stale between page load and submit matches zero rows instead of
// releasing whoever holds the gift now.
func (s *GiftStore) UnreserveBy(ctx context.Context, id, takenBy string) (*model.Gift, error) {
	result, err := s.conn.ExecContext(ctx,
		`UPDATE gifts
		 SET is_taken = 0, taken_by = NULL, hide_reserver_name = 0, updated_at = ?
		 WHERE id = ? AND is_taken = 1 AND taken_by = ?`,
		time.Now(),
		id,
		takenBy,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: unreserving gift %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, s.explainUnreserveByMiss(ctx, id)
	}

	return s.GetByID(ctx, id)
}

// explainUnreserveByMiss resolves a zero-rows UnreserveBy: the gift is
// missing, not reserved at all, or reserved under another name.
func (s *GiftStore) explainUnreserveByMiss(ctx context.Context, id string) error {
	var isTaken int
	err := s.conn.QueryRowContext(ctx,
		`SELECT is_taken FROM gifts WHERE id = ?`, id).Scan(&isTaken)
	if err == sql.ErrNoRows {
		return apperror.NotFound("gift", id)
	}
	if err != nil {
		return fmt.Errorf("sqlite: checking gift %s: %w", id, err)
	}
	if isTaken == 0 {
		return apperror.Conflict(fmt.Sprintf("gift %s is not reserved", id))
	}
	return apperror.Forbidden("the reservation was made under a different name")
}

// explainGiftConflict resolves a zero-rows-affected transition: NotFound when
// the gift doesn't exist at all, the given conflict error when it exists in
// the wrong state.
func (s *GiftStore) explainGiftConflict(ctx context.Context, id string, conflict error) (*model.Gift, error) {
	var exists int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM gifts WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking gift %s: %w", id, err)
	}
	if exists == 0 {
		return nil, apperror.NotFound("gift", id)
	}
	return nil, conflict
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGift(row rowScanner) (*model.Gift, error) {
	var (
		gift     model.Gift
		currency string
		links    string
		takenBy  sql.NullString
		isTaken  int
		hideName int
	)

	err := row.Scan(
		&gift.ID,
		&gift.Name,
		&gift.Description,
		&gift.ImagePath,
		&gift.ApproximatePrice,
		&currency,
		&links,
		&isTaken,
		&takenBy,
		&hideName,
		&gift.CreatedAt,
		&gift.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	gift.Currency = model.Currency(currency)
	gift.PurchaseLinks = decodeLinks(gift.ID, links)
	gift.IsTaken = isTaken != 0
	gift.HideReserverName = hideName != 0
	if takenBy.Valid {
		gift.TakenBy = &takenBy.String
	}

	return &gift, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
