package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/vango-dev/metalens/internal/errors"
	"github.com/vango-dev/metalens/pkg/seo"
)

// Summary is the list view of a stored analysis.
type Summary struct {
	ID              string    `json:"id" yaml:"id"`
	URL             string    `json:"url" yaml:"url"`
	Domain          string    `json:"domain" yaml:"domain"`
	Title           string    `json:"title" yaml:"title"`
	Description     string    `json:"description" yaml:"description"`
	OverallScore    int       `json:"overall_score" yaml:"overall_score"`
	AnalyzedAt      time.Time `json:"analysis_date" yaml:"analysis_date"`
	HasTitle        bool      `json:"has_title" yaml:"has_title"`
	HasDescription  bool      `json:"has_description" yaml:"has_description"`
	HasOGTags       bool      `json:"has_og_tags" yaml:"has_og_tags"`
	HasTwitterCards bool      `json:"has_twitter_cards" yaml:"has_twitter_cards"`
}

// DomainStats aggregates every analysis of one domain.
type DomainStats struct {
	Domain              string    `json:"domain" yaml:"domain"`
	TotalAnalyses       int       `json:"total_analyses" yaml:"total_analyses"`
	LastAnalysis        time.Time `json:"last_analysis" yaml:"last_analysis"`
	AvgOverallScore     float64   `json:"avg_overall_score" yaml:"avg_overall_score"`
	AvgTitleScore       float64   `json:"avg_title_score" yaml:"avg_title_score"`
	AvgDescriptionScore float64   `json:"avg_description_score" yaml:"avg_description_score"`
	AvgOGScore          float64   `json:"avg_og_score" yaml:"avg_og_score"`
	AvgTwitterScore     float64   `json:"avg_twitter_score" yaml:"avg_twitter_score"`
	BestScore           int       `json:"best_score" yaml:"best_score"`
	WorstScore          int       `json:"worst_score" yaml:"worst_score"`
	CreatedAt           time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" yaml:"updated_at"`
}

type scores struct {
	overall, title, description, og, twitter int
}

func scoresOf(res *seo.Result) scores {
	v := res.Validation
	return scores{
		overall:     v.OverallScore,
		title:       v.Title.Score(),
		description: v.Description.Score(),
		og:          v.OpenGraph.Score(),
		twitter:     v.Twitter.Score(),
	}
}

// SaveAnalysis stores res and folds it into its domain's statistics in
// one transaction.
func (d *DB) SaveAnalysis(ctx context.Context, res *seo.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return queryError("encode analysis", err)
	}

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return queryError("begin", err)
	}
	defer tx.Rollback()

	sc := scoresOf(res)
	md := res.Meta
	_, err = tx.ExecContext(ctx, `
		INSERT INTO analyses (
			id, url, domain, title, description,
			overall_score, title_score, description_score, og_score, twitter_score,
			has_title, has_description, has_keywords, has_og_tags, has_twitter_cards,
			analyzed_at, elapsed_ms, result_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.URL, res.Domain, md.Title, md.Description,
		sc.overall, sc.title, sc.description, sc.og, sc.twitter,
		md.Title != "", md.Description != "", md.Keywords != "",
		res.Validation.OpenGraph.Status == seo.StatusSuccess, md.TwitterCard != "",
		formatTime(res.AnalyzedAt), res.Elapsed.Milliseconds(), string(raw),
	)
	if err != nil {
		return queryError("insert analysis", err)
	}

	if err := d.updateDomainStats(ctx, tx, res.Domain, sc); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return queryError("commit", err)
	}
	return nil
}

func (d *DB) updateDomainStats(ctx context.Context, tx *sql.Tx, domain string, sc scores) error {
	now := formatTime(d.now())

	st, err := scanDomainStats(tx.QueryRowContext(ctx, domainStatsQuery, domain))
	if stderrors.Is(err, sql.ErrNoRows) {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO domain_stats (
				domain, total_analyses, last_analysis,
				avg_overall_score, avg_title_score, avg_description_score, avg_og_score, avg_twitter_score,
				best_score, worst_score, created_at, updated_at
			) VALUES (?, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			domain, now,
			float64(sc.overall), float64(sc.title), float64(sc.description), float64(sc.og), float64(sc.twitter),
			sc.overall, sc.overall, now, now,
		)
		if err != nil {
			return queryError("insert domain stats", err)
		}
		return nil
	}
	if err != nil {
		return queryError("load domain stats", err)
	}

	n := float64(st.TotalAnalyses + 1)
	avg := func(old float64, v int) float64 { return (old*(n-1) + float64(v)) / n }

	_, err = tx.ExecContext(ctx, `
		UPDATE domain_stats SET
			total_analyses = ?, last_analysis = ?,
			avg_overall_score = ?, avg_title_score = ?, avg_description_score = ?,
			avg_og_score = ?, avg_twitter_score = ?,
			best_score = ?, worst_score = ?, updated_at = ?
		WHERE domain = ?`,
		st.TotalAnalyses+1, now,
		avg(st.AvgOverallScore, sc.overall), avg(st.AvgTitleScore, sc.title), avg(st.AvgDescriptionScore, sc.description),
		avg(st.AvgOGScore, sc.og), avg(st.AvgTwitterScore, sc.twitter),
		max(st.BestScore, sc.overall), min(st.WorstScore, sc.overall), now,
		domain,
	)
	if err != nil {
		return queryError("update domain stats", err)
	}
	return nil
}

// RecentAnalyses returns up to limit analyses, newest first.
func (d *DB) RecentAnalyses(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.QueryContext(ctx, `
		SELECT id, url, domain, title, description, overall_score, analyzed_at,
		       has_title, has_description, has_og_tags, has_twitter_cards
		FROM analyses
		ORDER BY analyzed_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, queryError("list analyses", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var s Summary
		var at string
		if err := rows.Scan(&s.ID, &s.URL, &s.Domain, &s.Title, &s.Description, &s.OverallScore, &at,
			&s.HasTitle, &s.HasDescription, &s.HasOGTags, &s.HasTwitterCards); err != nil {
			return nil, queryError("scan analysis", err)
		}
		s.AnalyzedAt = parseTime(at)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("list analyses", err)
	}
	return out, nil
}

// Analysis returns the full stored result with the given ID.
func (d *DB) Analysis(ctx context.Context, id string) (*seo.Result, error) {
	var raw string
	err := d.QueryRowContext(ctx, `SELECT result_json FROM analyses WHERE id = ?`, id).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.CodeNotFound).Args("Analysis " + id)
	}
	if err != nil {
		return nil, queryError("load analysis", err)
	}

	var res seo.Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, queryError("decode analysis", err)
	}
	return &res, nil
}

const domainStatsQuery = `
	SELECT domain, total_analyses, last_analysis,
	       avg_overall_score, avg_title_score, avg_description_score, avg_og_score, avg_twitter_score,
	       best_score, worst_score, created_at, updated_at
	FROM domain_stats WHERE domain = ?`

// DomainStats returns the aggregate statistics of domain.
func (d *DB) DomainStats(ctx context.Context, domain string) (*DomainStats, error) {
	st, err := scanDomainStats(d.QueryRowContext(ctx, domainStatsQuery, domain))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.CodeNotFound).Args("Domain " + domain)
	}
	if err != nil {
		return nil, queryError("load domain stats", err)
	}
	return st, nil
}

func scanDomainStats(row *sql.Row) (*DomainStats, error) {
	var st DomainStats
	var last, created, updated string
	err := row.Scan(&st.Domain, &st.TotalAnalyses, &last,
		&st.AvgOverallScore, &st.AvgTitleScore, &st.AvgDescriptionScore, &st.AvgOGScore, &st.AvgTwitterScore,
		&st.BestScore, &st.WorstScore, &created, &updated)
	if err != nil {
		return nil, err
	}
	st.LastAnalysis = parseTime(last)
	st.CreatedAt = parseTime(created)
	st.UpdatedAt = parseTime(updated)
	return &st, nil
}
