package data

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/lib/pq"

	"github.com/iWorld-y/content_pilot/internal/biz"
)

type draftRepo struct {
	data     *Data
	keywords biz.KeywordRepo
	log      *log.Helper
}

func NewDraftRepo(data *Data, keywords biz.KeywordRepo, logger log.Logger) biz.DraftRepo {
	return &draftRepo{
		data:     data,
		keywords: keywords,
		log:      log.NewHelper(logger),
	}
}

func (r *draftRepo) Create(ctx context.Context, draft *biz.Draft) error {
	_, err := r.data.db.ExecContext(ctx, `
		INSERT INTO drafts (id, title, status, primary_keyword_id)
		VALUES ($1, $2, $3, $4)`,
		draft.ID, draft.Title, string(draft.Status), nullable(draft.PrimaryKeywordID))
	return err
}

func (r *draftRepo) Get(ctx context.Context, id string) (*biz.Draft, error) {
	row := r.data.db.QueryRowContext(ctx, `
		SELECT id, title, COALESCE(content, ''), status, COALESCE(primary_keyword_id, ''),
		       strategy, outline, seo_score, created_at, updated_at
		FROM drafts WHERE id = $1`, id)

	draft, err := scanDraft(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("DRAFT_NOT_FOUND", "draft not found")
		}
		return nil, err
	}

	if draft.PrimaryKeywordID != "" {
		kw, err := r.keywords.Get(ctx, draft.PrimaryKeywordID)
		if err == nil {
			draft.Keyword = kw
		} else if !errors.IsNotFound(err) {
			return nil, err
		}
	}

	sections, err := r.ListSections(ctx, id)
	if err != nil {
		return nil, err
	}
	draft.Sections = sections

	return draft, nil
}

func (r *draftRepo) List(ctx context.Context) ([]*biz.Draft, error) {
	rows, err := r.data.db.QueryContext(ctx, `
		SELECT d.id, d.title, COALESCE(d.content, ''), d.status, COALESCE(d.primary_keyword_id, ''),
		       d.strategy, d.outline, d.seo_score, d.created_at, d.updated_at,
		       k.id, k.keyword, k.difficulty, k.difficulty_level, k.search_volume, k.kcv
		FROM drafts d
		LEFT JOIN keywords k ON k.id = d.primary_keyword_id
		ORDER BY d.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []*biz.Draft
	for rows.Next() {
		var d biz.Draft
		var status string
		var strategy, outline, seoScore []byte
		var kwID, kwText, kwLevel sql.NullString
		var kwDifficulty, kwVolume sql.NullInt64
		var kwKCV sql.NullFloat64
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &status, &d.PrimaryKeywordID,
			&strategy, &outline, &seoScore, &d.CreatedAt, &d.UpdatedAt,
			&kwID, &kwText, &kwDifficulty, &kwLevel, &kwVolume, &kwKCV); err != nil {
			return nil, err
		}
		d.Status = biz.DraftStatus(status)
		if err := unmarshalDocs(&d, strategy, outline, seoScore); err != nil {
			return nil, err
		}
		if kwID.Valid {
			d.Keyword = &biz.Keyword{
				ID:              kwID.String,
				Keyword:         kwText.String,
				Difficulty:      int(kwDifficulty.Int64),
				DifficultyLevel: biz.DifficultyLevel(kwLevel.String),
				SearchVolume:    int(kwVolume.Int64),
				KCV:             kwKCV.Float64,
			}
		}
		drafts = append(drafts, &d)
	}
	return drafts, rows.Err()
}

func (r *draftRepo) UpdateStatusFrom(ctx context.Context, id string, from []biz.DraftStatus, to biz.DraftStatus) (bool, error) {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}
	res, err := r.data.db.ExecContext(ctx, `
		UPDATE drafts SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`,
		id, string(to), pq.Array(states))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *draftRepo) SaveStrategy(ctx context.Context, id string, strategy *biz.Strategy, status biz.DraftStatus) error {
	doc, err := json.Marshal(strategy)
	if err != nil {
		return err
	}
	return r.exec(ctx, `
		UPDATE drafts SET strategy = $2, status = $3, updated_at = now()
		WHERE id = $1`, id, doc, string(status))
}

func (r *draftRepo) SaveOutline(ctx context.Context, id string, outline *biz.Outline) error {
	doc, err := json.Marshal(outline)
	if err != nil {
		return err
	}
	return r.exec(ctx, `
		UPDATE drafts SET outline = $2, updated_at = now()
		WHERE id = $1`, id, doc)
}

func (r *draftRepo) SaveContent(ctx context.Context, id string, content string, status biz.DraftStatus) error {
	return r.exec(ctx, `
		UPDATE drafts SET content = $2, status = $3, updated_at = now()
		WHERE id = $1`, id, content, string(status))
}

func (r *draftRepo) SaveSeoScore(ctx context.Context, id string, score *biz.SeoScore) error {
	doc, err := json.Marshal(score)
	if err != nil {
		return err
	}
	return r.exec(ctx, `
		UPDATE drafts SET seo_score = $2, updated_at = now()
		WHERE id = $1`, id, doc)
}

func (r *draftRepo) AppendSection(ctx context.Context, section *biz.Section) error {
	_, err := r.data.db.ExecContext(ctx, `
		INSERT INTO sections (id, draft_id, heading, content, section_order, section_type)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		section.ID, section.DraftID, section.Heading, section.Content, section.Order, string(section.Type))
	return err
}

func (r *draftRepo) ListSections(ctx context.Context, draftID string) ([]*biz.Section, error) {
	rows, err := r.data.db.QueryContext(ctx, `
		SELECT id, draft_id, heading, content, section_order, COALESCE(section_type, ''), created_at
		FROM sections WHERE draft_id = $1
		ORDER BY section_order ASC`, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []*biz.Section
	for rows.Next() {
		var s biz.Section
		var sectionType string
		if err := rows.Scan(&s.ID, &s.DraftID, &s.Heading, &s.Content, &s.Order, &sectionType, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Type = biz.SectionType(sectionType)
		sections = append(sections, &s)
	}
	return sections, rows.Err()
}

func (r *draftRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.data.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFound("DRAFT_NOT_FOUND", "draft not found")
	}
	return nil
}

func scanDraft(row *sql.Row) (*biz.Draft, error) {
	var d biz.Draft
	var status string
	var strategy, outline, seoScore []byte
	if err := row.Scan(&d.ID, &d.Title, &d.Content, &status, &d.PrimaryKeywordID,
		&strategy, &outline, &seoScore, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Status = biz.DraftStatus(status)
	if err := unmarshalDocs(&d, strategy, outline, seoScore); err != nil {
		return nil, err
	}
	return &d, nil
}

func unmarshalDocs(d *biz.Draft, strategy, outline, seoScore []byte) error {
	if len(strategy) > 0 {
		d.Strategy = &biz.Strategy{}
		if err := json.Unmarshal(strategy, d.Strategy); err != nil {
			return err
		}
	}
	if len(outline) > 0 {
		d.Outline = &biz.Outline{}
		if err := json.Unmarshal(outline, d.Outline); err != nil {
			return err
		}
	}
	if len(seoScore) > 0 {
		d.SeoScore = &biz.SeoScore{}
		if err := json.Unmarshal(seoScore, d.SeoScore); err != nil {
			return err
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
