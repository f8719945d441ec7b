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

// BigGiftStore implements repository.BigGiftRepository over the shared
// connection pool.
type BigGiftStore struct {
	conn *sql.DB
}

var _ repository.BigGiftRepository = (*BigGiftStore)(nil)

const bigGiftColumns = `id, name, description, image_path, target_amount, current_amount,
	currency, purchase_links, created_at, updated_at`

// Create inserts a new big gift with an empty ledger. current_amount always
// starts at zero; it only ever changes inside AddContribution's transaction.
func (s *BigGiftStore) Create(ctx context.Context, bigGift *model.BigGift) error {
	bigGift.ID = xid.New().String()
	bigGift.CurrentAmount = 0
	bigGift.Contributions = []model.Contribution{}

	now := time.Now()
	bigGift.CreatedAt = now
	bigGift.UpdatedAt = now

	links, err := encodeLinks(bigGift.PurchaseLinks)
	if err != nil {
		return fmt.Errorf("sqlite: creating big gift: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO big_gifts (id, name, description, image_path, target_amount,
			current_amount, currency, purchase_links, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		bigGift.ID,
		bigGift.Name,
		bigGift.Description,
		bigGift.ImagePath,
		bigGift.TargetAmount,
		string(bigGift.Currency),
		links,
		bigGift.CreatedAt,
		bigGift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating big gift: %w", err)
	}

	return nil
}

// GetByID retrieves a big gift together with its full contribution list in
// recency order (newest first; xid IDs break created_at ties because they
// sort by creation time).
func (s *BigGiftStore) GetByID(ctx context.Context, id string) (*model.BigGift, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+bigGiftColumns+` FROM big_gifts WHERE id = ?`, id)

	bigGift, err := scanBigGift(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("big gift", id)
		}
		return nil, fmt.Errorf("sqlite: getting big gift %s: %w", id, err)
	}

	contributions, err := s.contributionsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	bigGift.Contributions = contributions

	return bigGift, nil
}

// List retrieves all big gifts, each with its contributions, ordered by name.
func (s *BigGiftStore) List(ctx context.Context) ([]model.BigGift, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+bigGiftColumns+` FROM big_gifts ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing big gifts: %w", err)
	}
	defer rows.Close()

	bigGifts := []model.BigGift{}
	for rows.Next() {
		bigGift, err := scanBigGift(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning big gift row: %w", err)
		}
		bigGifts = append(bigGifts, *bigGift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating big gifts: %w", err)
	}

	for i := range bigGifts {
		contributions, err := s.contributionsFor(ctx, bigGifts[i].ID)
		if err != nil {
			return nil, err
		}
		bigGifts[i].Contributions = contributions
	}

	return bigGifts, nil
}

// Update writes the descriptive fields of a big gift. current_amount is not
// in the column list: admin edits can rename a gift or move its target, but
// the running total belongs to the ledger alone.
func (s *BigGiftStore) Update(ctx context.Context, bigGift *model.BigGift) error {
	bigGift.UpdatedAt = time.Now()

	links, err := encodeLinks(bigGift.PurchaseLinks)
	if err != nil {
		return fmt.Errorf("sqlite: updating big gift %s: %w", bigGift.ID, err)
	}

	result, err := s.conn.ExecContext(ctx,
		`UPDATE big_gifts
		 SET name = ?, description = ?, image_path = ?, target_amount = ?,
		     currency = ?, purchase_links = ?, updated_at = ?
		 WHERE id = ?`,
		bigGift.Name,
		bigGift.Description,
		bigGift.ImagePath,
		bigGift.TargetAmount,
		string(bigGift.Currency),
		links,
		bigGift.UpdatedAt,
		bigGift.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating big gift %s: %w", bigGift.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("big gift", bigGift.ID)
	}

	return nil
}

// Delete removes a big gift only when its ledger is empty. The guard is part
// of the DELETE itself, so a contribution landing concurrently can't slip in
// between a count and the delete. Zero rows affected is disambiguated into
// NotFound vs Conflict by a follow-up read.
func (s *BigGiftStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM big_gifts
		 WHERE id = ?
		   AND NOT EXISTS (SELECT 1 FROM contributions WHERE big_gift_id = ?)`,
		id, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting big gift %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists int
		err := s.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM big_gifts WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("sqlite: checking big gift %s: %w", id, err)
		}
		if exists == 0 {
			return apperror.NotFound("big gift", id)
		}
		return apperror.Conflict(
			"cannot delete big gift with existing contributions; archive it instead")
	}

	return nil
}

// AddContribution appends a contribution and refreshes the running total in
// one transaction.
//
// The total is recomputed from SUM(amount) over the whole ledger inside the
// same transaction as the insert — never incremented from a previously read
// value. Two interleaved contributions therefore both end up in the total:
// whichever transaction commits second sums a ledger that already contains
// the first one.
func (s *BigGiftStore) AddContribution(ctx context.Context, contribution *model.Contribution) (*model.BigGift, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning contribution tx: %w", err)
	}
	defer tx.Rollback()

	// Existence check inside the transaction gives a clean NotFound; the
	// foreign key on contributions backstops it.
	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM big_gifts WHERE id = ?`,
		contribution.BigGiftID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking big gift %s: %w", contribution.BigGiftID, err)
	}
	if exists == 0 {
		return nil, apperror.NotFound("big gift", contribution.BigGiftID)
	}

	contribution.ID = xid.New().String()
	contribution.CreatedAt = time.Now()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO contributions (id, big_gift_id, name, amount, email, message,
			hide_contributor_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		contribution.ID,
		contribution.BigGiftID,
		contribution.Name,
		contribution.Amount,
		contribution.Email,
		contribution.Message,
		boolToInt(contribution.HideContributorName),
		contribution.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: inserting contribution: %w", err)
	}

	// The summed REALs can pick up float residue (0.1+0.2 style), so the
	// total is rounded back to cents before it is stored.
	var total float64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM contributions WHERE big_gift_id = ?`,
		contribution.BigGiftID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("sqlite: summing contributions for %s: %w", contribution.BigGiftID, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE big_gifts SET current_amount = ?, updated_at = ? WHERE id = ?`,
		model.RoundAmount(total),
		time.Now(),
		contribution.BigGiftID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: refreshing big gift total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing contribution: %w", err)
	}

	return s.GetByID(ctx, contribution.BigGiftID)
}

// contributionsFor loads the ledger for one big gift, newest first.
func (s *BigGiftStore) contributionsFor(ctx context.Context, bigGiftID string) ([]model.Contribution, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, big_gift_id, name, amount, email, message, hide_contributor_name, created_at
		 FROM contributions
		 WHERE big_gift_id = ?
		 ORDER BY created_at DESC, id DESC`,
		bigGiftID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing contributions for %s: %w", bigGiftID, err)
	}
	defer rows.Close()

	contributions := []model.Contribution{}
	for rows.Next() {
		var (
			c        model.Contribution
			email    sql.NullString
			message  sql.NullString
			hideName int
		)
		err := rows.Scan(
			&c.ID,
			&c.BigGiftID,
			&c.Name,
			&c.Amount,
			&email,
			&message,
			&hideName,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning contribution row: %w", err)
		}
		c.HideContributorName = hideName != 0
		if email.Valid {
			c.Email = &email.String
		}
		if message.Valid {
			c.Message = &message.String
		}
		contributions = append(contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating contributions: %w", err)
	}

	return contributions, nil
}

func scanBigGift(row rowScanner) (*model.BigGift, error) {
	var (
		bigGift  model.BigGift
		currency string
		links    string
	)

	err := row.Scan(
		&bigGift.ID,
		&bigGift.Name,
		&bigGift.Description,
		&bigGift.ImagePath,
		&bigGift.TargetAmount,
		&bigGift.CurrentAmount,
		&currency,
		&links,
		&bigGift.CreatedAt,
		&bigGift.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	bigGift.Currency = model.Currency(currency)
	bigGift.PurchaseLinks = decodeLinks(bigGift.ID, links)

	return &bigGift, nil
}
