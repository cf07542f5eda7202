package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"reviewlist/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*8) // 8 params per row
	for _, rv := range rs {
		var photos []byte
		if len(rv.PhotoURLs) > 0 {
			b, err := json.Marshal(rv.PhotoURLs)
			if err != nil {
				return fmt.Errorf("marshal photo urls: %w", err)
			}
			photos = b
		}
		values = append(values, "(?,?,?,?,?,?,?,?)")
		args = append(args,
			rv.SourceID,
			rv.FirstName,
			rv.LastName,
			rv.Rating,
			rv.Text,
			rv.Created,
			valStr(rv.AvatarURL),
			valJSON(photos),
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) ListReviews(ctx context.Context, offset, limit int) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Review, 0, limit)
	for rows.Next() {
		var (
			rv     domain.Review
			avatar sql.NullString
			photos []byte
		)
		if err := rows.Scan(
			&rv.ID, &rv.SourceID,
			&rv.FirstName, &rv.LastName,
			&rv.Rating, &rv.Text, &rv.Created,
			&avatar, &photos,
		); err != nil {
			return nil, err
		}
		if avatar.Valid && strings.TrimSpace(avatar.String) != "" {
			a := avatar.String
			rv.AvatarURL = &a
		}
		if len(photos) > 0 {
			_ = json.Unmarshal(photos, &rv.PhotoURLs)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) CountReviews(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countReviewsSQL).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }
