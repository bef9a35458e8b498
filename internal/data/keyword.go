package data

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/content_pilot/internal/biz"
)

type keywordRepo struct {
	data *Data
	log  *log.Helper
}

func NewKeywordRepo(data *Data, logger log.Logger) biz.KeywordRepo {
	return &keywordRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *keywordRepo) Create(ctx context.Context, kw *biz.Keyword) error {
	metadata, err := json.Marshal(kw.Metadata)
	if err != nil {
		return err
	}
	_, err = r.data.db.ExecContext(ctx, `
		INSERT INTO keywords (id, keyword, difficulty, difficulty_level, search_volume, kcv, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		kw.ID, kw.Keyword, kw.Difficulty, string(kw.DifficultyLevel), kw.SearchVolume, kw.KCV, metadata)
	return err
}

func (r *keywordRepo) Get(ctx context.Context, id string) (*biz.Keyword, error) {
	kw, err := r.scanOne(r.data.db.QueryRowContext(ctx, `
		SELECT id, keyword, difficulty, difficulty_level, search_volume, kcv, metadata, created_at
		FROM keywords WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("KEYWORD_NOT_FOUND", "keyword not found")
		}
		return nil, err
	}
	return kw, nil
}

func (r *keywordRepo) GetByText(ctx context.Context, text string) (*biz.Keyword, error) {
	kw, err := r.scanOne(r.data.db.QueryRowContext(ctx, `
		SELECT id, keyword, difficulty, difficulty_level, search_volume, kcv, metadata, created_at
		FROM keywords WHERE keyword = $1 LIMIT 1`, text))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return kw, nil
}

func (r *keywordRepo) scanOne(row *sql.Row) (*biz.Keyword, error) {
	var kw biz.Keyword
	var level string
	var metadata []byte
	if err := row.Scan(&kw.ID, &kw.Keyword, &kw.Difficulty, &level, &kw.SearchVolume, &kw.KCV, &metadata, &kw.CreatedAt); err != nil {
		return nil, err
	}
	kw.DifficultyLevel = biz.DifficultyLevel(level)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &kw.Metadata); err != nil {
			r.log.Warnf("invalid keyword metadata for %s: %v", kw.ID, err)
		}
	}
	return &kw, nil
}
