package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-content/internal/platform/database"
)

const dbTimeout = 5 * time.Second

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   querier
	tx   pgx.Tx
}

// NewPostgresStore creates a store over an existing pool. The schema is
// expected to be migrated already (see database.DB.Migrate).
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool, db: pool}, nil
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	return database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&PostgresStore{pool: s.pool, db: tx, tx: tx})
	})
}

// --- Materials ---

const materialColumns = `id::text, name, COALESCE(description, ''), position, created_at, updated_at`

func scanMaterial(row pgx.Row) (Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Order, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (s *PostgresStore) CreateMaterial(ctx context.Context, m Material) (Material, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	out, err := scanMaterial(s.db.QueryRow(ctx,
		`INSERT INTO materials (name, description, position)
		 VALUES ($1, $2, $3)
		 RETURNING `+materialColumns,
		m.Name, nullIfEmpty(m.Description), m.Order,
	))
	if err != nil {
		return Material{}, fmt.Errorf("create material: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetMaterial(ctx context.Context, id string) (Material, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	m, err := scanMaterial(s.db.QueryRow(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE id = $1::uuid`, id,
	))
	if err != nil {
		return Material{}, notFoundOr(err, "material", id, "get material")
	}
	return m, nil
}

func (s *PostgresStore) ListMaterials(ctx context.Context) ([]Material, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx,
		`SELECT `+materialColumns+` FROM materials ORDER BY position, name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	return collect(rows, scanMaterial, "materials")
}

func (s *PostgresStore) FindMaterialByName(ctx context.Context, name string) (Material, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	m, err := scanMaterial(s.db.QueryRow(ctx,
		`SELECT `+materialColumns+` FROM materials
		 WHERE name = $1
		 ORDER BY created_at, id
		 LIMIT 1`,
		name,
	))
	return found(m, err, "find material")
}

func (s *PostgresStore) DeleteMaterial(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "materials", "material", id)
}

// --- Chapters ---

const chapterColumns = `id::text, material_id::text, COALESCE(parent_chapter_id::text, ''), name,
	COALESCE(description, ''), level, position, created_at, updated_at`

func scanChapter(row pgx.Row) (Chapter, error) {
	var c Chapter
	err := row.Scan(&c.ID, &c.MaterialID, &c.ParentID, &c.Name, &c.Description,
		&c.Level, &c.Order, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *PostgresStore) CreateChapter(ctx context.Context, c Chapter) (Chapter, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	out, err := scanChapter(s.db.QueryRow(ctx,
		`INSERT INTO chapters (material_id, parent_chapter_id, name, description, level, position)
		 VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6)
		 RETURNING `+chapterColumns,
		c.MaterialID, nullIfEmpty(c.ParentID), c.Name, nullIfEmpty(c.Description), c.Level, c.Order,
	))
	if err != nil {
		if constraint, ok := foreignKeyViolation(err); ok {
			if strings.Contains(constraint, "parent") {
				return Chapter{}, NotFound("chapter", c.ParentID)
			}
			return Chapter{}, NotFound("material", c.MaterialID)
		}
		return Chapter{}, fmt.Errorf("create chapter: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetChapter(ctx context.Context, id string) (Chapter, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	c, err := scanChapter(s.db.QueryRow(ctx,
		`SELECT `+chapterColumns+` FROM chapters WHERE id = $1::uuid`, id,
	))
	if err != nil {
		return Chapter{}, notFoundOr(err, "chapter", id, "get chapter")
	}
	return c, nil
}

func (s *PostgresStore) ListChaptersByMaterial(ctx context.Context, materialID string) ([]Chapter, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx,
		`SELECT `+chapterColumns+` FROM chapters
		 WHERE material_id = $1::uuid
		 ORDER BY level, position, id`,
		materialID,
	)
	if err != nil {
		return nil, fmt.Errorf("query chapters: %w", err)
	}
	return collect(rows, scanChapter, "chapters")
}

func (s *PostgresStore) FindChapterByName(ctx context.Context, materialID, parentID, name string) (Chapter, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	c, err := scanChapter(s.db.QueryRow(ctx,
		`SELECT `+chapterColumns+` FROM chapters
		 WHERE material_id = $1::uuid
		   AND parent_chapter_id IS NOT DISTINCT FROM $2::uuid
		   AND name = $3
		 ORDER BY created_at, id
		 LIMIT 1`,
		materialID, nullIfEmpty(parentID), name,
	))
	return found(c, err, "find chapter")
}

func (s *PostgresStore) DeleteChapter(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "chapters", "chapter", id)
}

// --- Units ---

const unitColumns = `id::text, chapter_id::text, name, COALESCE(description, ''), position, created_at, updated_at`

func scanUnit(row pgx.Row) (Unit, error) {
	var u Unit
	err := row.Scan(&u.ID, &u.ChapterID, &u.Name, &u.Description, &u.Order, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *PostgresStore) CreateUnit(ctx context.Context, u Unit) (Unit, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	out, err := scanUnit(s.db.QueryRow(ctx,
		`INSERT INTO units (chapter_id, name, description, position)
		 VALUES ($1::uuid, $2, $3, $4)
		 RETURNING `+unitColumns,
		u.ChapterID, u.Name, nullIfEmpty(u.Description), u.Order,
	))
	if err != nil {
		if _, ok := foreignKeyViolation(err); ok {
			return Unit{}, NotFound("chapter", u.ChapterID)
		}
		return Unit{}, fmt.Errorf("create unit: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetUnit(ctx context.Context, id string) (Unit, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	u, err := scanUnit(s.db.QueryRow(ctx,
		`SELECT `+unitColumns+` FROM units WHERE id = $1::uuid`, id,
	))
	if err != nil {
		return Unit{}, notFoundOr(err, "unit", id, "get unit")
	}
	return u, nil
}

func (s *PostgresStore) ListUnitsByChapters(ctx context.Context, chapterIDs []string) ([]Unit, error) {
	if len(chapterIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx,
		`SELECT `+unitColumns+` FROM units
		 WHERE chapter_id = ANY($1::uuid[])
		 ORDER BY chapter_id, position, id`,
		chapterIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}
	return collect(rows, scanUnit, "units")
}

func (s *PostgresStore) FindUnitByName(ctx context.Context, chapterID, name string) (Unit, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	u, err := scanUnit(s.db.QueryRow(ctx,
		`SELECT `+unitColumns+` FROM units
		 WHERE chapter_id = $1::uuid AND name = $2
		 ORDER BY created_at, id
		 LIMIT 1`,
		chapterID, name,
	))
	return found(u, err, "find unit")
}

func (s *PostgresStore) DeleteUnit(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "units", "unit", id)
}

// --- Questions ---

const questionColumns = `id::text, unit_id::text, japanese, COALESCE(hint, ''), COALESCE(explanation, ''),
	position, created_at, updated_at`

func scanQuestion(row pgx.Row) (Question, error) {
	var q Question
	err := row.Scan(&q.ID, &q.UnitID, &q.Japanese, &q.Hint, &q.Explanation, &q.Order, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

func (s *PostgresStore) CreateQuestion(ctx context.Context, q Question) (Question, error) {
	var out Question
	err := s.WithTx(ctx, func(st Store) error {
		tx := st.(*PostgresStore)
		ctx, cancel := context.WithTimeout(ctx, dbTimeout)
		defer cancel()

		created, err := scanQuestion(tx.db.QueryRow(ctx,
			`INSERT INTO questions (unit_id, japanese, hint, explanation, position)
			 VALUES ($1::uuid, $2, $3, $4, $5)
			 RETURNING `+questionColumns,
			q.UnitID, q.Japanese, nullIfEmpty(q.Hint), nullIfEmpty(q.Explanation), q.Order,
		))
		if err != nil {
			if _, ok := foreignKeyViolation(err); ok {
				return NotFound("unit", q.UnitID)
			}
			return fmt.Errorf("insert question: %w", err)
		}

		for _, a := range q.Answers {
			ans, err := scanAnswer(tx.db.QueryRow(ctx,
				`INSERT INTO correct_answers (question_id, answer_text, position)
				 VALUES ($1::uuid, $2, $3)
				 RETURNING `+answerColumns,
				created.ID, a.AnswerText, a.Order,
			))
			if err != nil {
				return fmt.Errorf("insert answer: %w", err)
			}
			created.Answers = append(created.Answers, ans)
		}

		if v := q.Vocabulary; v != nil {
			if _, err := tx.db.Exec(ctx,
				`INSERT INTO vocabulary_entries (question_id, headword, pronunciation, part_of_speech,
				   primary_definition, secondary_definitions, synonyms, antonyms, related_words, examples)
				 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				created.ID, v.Headword, nullIfEmpty(v.Pronunciation), nullIfEmpty(v.PartOfSpeech),
				v.PrimaryDefinition, nonNil(v.SecondaryDefinitions), nonNil(v.Synonyms),
				nonNil(v.Antonyms), nonNil(v.RelatedWords), nonNil(v.Examples),
			); err != nil {
				return fmt.Errorf("insert vocabulary entry: %w", err)
			}
			entry := *v
			created.Vocabulary = &entry
		}

		out = created
		return nil
	})
	if err != nil {
		return Question{}, err
	}
	return out, nil
}

func (s *PostgresStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	qs, err := s.loadQuestions(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1::uuid`, id,
	)
	if err != nil {
		return Question{}, notFoundOr(err, "question", id, "get question")
	}
	if len(qs) == 0 {
		return Question{}, NotFound("question", id)
	}
	return qs[0], nil
}

func (s *PostgresStore) ListQuestionsByUnits(ctx context.Context, unitIDs []string) ([]Question, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	return s.loadQuestions(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE unit_id = ANY($1::uuid[])
		 ORDER BY unit_id, position, id`,
		unitIDs,
	)
}

func (s *PostgresStore) loadQuestions(ctx context.Context, query string, args ...any) ([]Question, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	questions, err := collect(rows, scanQuestion, "questions")
	if err != nil || len(questions) == 0 {
		return questions, err
	}

	ids := make([]string, len(questions))
	index := make(map[string]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
		index[q.ID] = i
	}

	rows, err = s.db.Query(ctx,
		`SELECT `+answerColumns+` FROM correct_answers
		 WHERE question_id = ANY($1::uuid[])
		 ORDER BY question_id, position, id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	answers, err := collect(rows, scanAnswer, "answers")
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		i := index[a.QuestionID]
		questions[i].Answers = append(questions[i].Answers, a)
	}

	rows, err = s.db.Query(ctx,
		`SELECT question_id::text, headword, COALESCE(pronunciation, ''), COALESCE(part_of_speech, ''),
		   primary_definition, secondary_definitions, synonyms, antonyms, related_words, examples
		 FROM vocabulary_entries
		 WHERE question_id = ANY($1::uuid[])`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("query vocabulary: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var qid string
		v := &VocabularyEntry{}
		if err := rows.Scan(&qid, &v.Headword, &v.Pronunciation, &v.PartOfSpeech, &v.PrimaryDefinition,
			&v.SecondaryDefinitions, &v.Synonyms, &v.Antonyms, &v.RelatedWords, &v.Examples); err != nil {
			return nil, fmt.Errorf("scan vocabulary: %w", err)
		}
		questions[index[qid]].Vocabulary = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vocabulary: %w", err)
	}

	return questions, nil
}

func (s *PostgresStore) CountQuestionsByUnits(ctx context.Context, unitIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(unitIDs))
	for _, id := range unitIDs {
		counts[id] = 0
	}
	if len(unitIDs) == 0 {
		return counts, nil
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx,
		`SELECT unit_id::text, count(*)
		 FROM questions
		 WHERE unit_id = ANY($1::uuid[])
		 GROUP BY unit_id`,
		unitIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan question count: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question counts: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "questions", "question", id)
}

const answerColumns = `id::text, question_id::text, answer_text, position, created_at, updated_at`

func scanAnswer(row pgx.Row) (CorrectAnswer, error) {
	var a CorrectAnswer
	err := row.Scan(&a.ID, &a.QuestionID, &a.AnswerText, &a.Order, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// --- Ordering ---

// siblingTable returns the table and scope predicate ($1/$2) for a group.
func siblingTable(g SiblingGroup) (table, where string, args []any) {
	switch g.Kind {
	case KindMaterial:
		return "materials", "TRUE", nil
	case KindChapter:
		return "chapters", "material_id = $1::uuid AND parent_chapter_id IS NOT DISTINCT FROM $2::uuid",
			[]any{g.ScopeID, nullIfEmpty(g.ParentID)}
	case KindUnit:
		return "units", "chapter_id = $1::uuid", []any{g.ScopeID}
	case KindQuestion:
		return "questions", "unit_id = $1::uuid", []any{g.ScopeID}
	default:
		return "correct_answers", "question_id = $1::uuid", []any{g.ScopeID}
	}
}

func (s *PostgresStore) SiblingOrders(ctx context.Context, g SiblingGroup) ([]Sibling, error) {
	return s.siblings(ctx, g, false)
}

func (s *PostgresStore) siblings(ctx context.Context, g SiblingGroup, lock bool) ([]Sibling, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	table, where, args := siblingTable(g)
	query := `SELECT id::text, position FROM ` + table + ` WHERE ` + where + ` ORDER BY position, id`
	if lock {
		query += ` FOR UPDATE`
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		if isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query siblings: %w", err)
	}
	out, err := collect(rows, func(row pgx.Row) (Sibling, error) {
		var sib Sibling
		err := row.Scan(&sib.ID, &sib.Order)
		return sib, err
	}, "siblings")
	if isInvalidText(err) {
		return nil, nil
	}
	return out, err
}

func (s *PostgresStore) SetSiblingOrders(ctx context.Context, g SiblingGroup, orders []Sibling, check SiblingCheck) error {
	return s.WithTx(ctx, func(st Store) error {
		tx := st.(*PostgresStore)

		current, err := tx.siblings(ctx, g, true)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(current); err != nil {
				return err
			}
		}
		if len(orders) == 0 {
			return nil
		}
		members := make(map[string]struct{}, len(current))
		for _, sib := range current {
			members[sib.ID] = struct{}{}
		}
		for _, o := range orders {
			if _, ok := members[o.ID]; !ok {
				return Invalid("ids", "%s is not in group %s", o.ID, g)
			}
		}

		ctx, cancel := context.WithTimeout(ctx, dbTimeout)
		defer cancel()

		table, _, _ := siblingTable(g)
		batch := &pgx.Batch{}
		for _, o := range orders {
			batch.Queue(`UPDATE `+table+` SET position = $1, updated_at = NOW() WHERE id = $2::uuid`, o.Order, o.ID)
		}
		if err := tx.tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("update positions: %w", err)
		}
		return nil
	})
}

// --- Statistics ---

const statisticColumns = `learner_id, question_id::text, mode, total_attempts, correct_count, incorrect_count, last_attempted_at`

func scanStatistic(row pgx.Row) (QuestionStatistic, error) {
	var st QuestionStatistic
	err := row.Scan(&st.LearnerID, &st.QuestionID, &st.Mode, &st.TotalAttempts,
		&st.CorrectCount, &st.IncorrectCount, &st.LastAttemptedAt)
	return st, err
}

func (s *PostgresStore) RecordAttempt(ctx context.Context, learnerID, questionID, mode string, correct bool, at time.Time) (QuestionStatistic, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	correctInc, incorrectInc := 0, 1
	if correct {
		correctInc, incorrectInc = 1, 0
	}

	st, err := scanStatistic(s.db.QueryRow(ctx,
		`INSERT INTO question_statistics
		   (learner_id, question_id, mode, total_attempts, correct_count, incorrect_count, last_attempted_at)
		 VALUES ($1, $2::uuid, $3, 1, $4, $5, $6)
		 ON CONFLICT (learner_id, question_id, mode) DO UPDATE SET
		   total_attempts    = question_statistics.total_attempts + 1,
		   correct_count     = question_statistics.correct_count + EXCLUDED.correct_count,
		   incorrect_count   = question_statistics.incorrect_count + EXCLUDED.incorrect_count,
		   last_attempted_at = GREATEST(question_statistics.last_attempted_at, EXCLUDED.last_attempted_at)
		 RETURNING `+statisticColumns,
		learnerID, questionID, mode, correctInc, incorrectInc, at,
	))
	if err != nil {
		if _, ok := foreignKeyViolation(err); ok || isInvalidText(err) {
			return QuestionStatistic{}, NotFound("question", questionID)
		}
		return QuestionStatistic{}, fmt.Errorf("record attempt: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) ListStatistics(ctx context.Context, learnerID, mode string, questionIDs []string) ([]QuestionStatistic, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx,
		`SELECT `+statisticColumns+` FROM question_statistics
		 WHERE learner_id = $1
		   AND question_id = ANY($2::uuid[])
		   AND ($3 = '' OR mode = $3)
		 ORDER BY question_id, mode`,
		learnerID, questionIDs, mode,
	)
	if err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}
	return collect(rows, scanStatistic, "statistics")
}

// --- helpers ---

func (s *PostgresStore) deleteByID(ctx context.Context, table, kind, id string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.db.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1::uuid`, id)
	if err != nil {
		if isInvalidText(err) {
			return NotFound(kind, id)
		}
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if cmd.RowsAffected() == 0 {
		return NotFound(kind, id)
	}
	return nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error), what string) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}

func found[T any](v T, err error, op string) (T, bool, error) {
	var zero T
	if err == nil {
		return v, true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
		return zero, false, nil
	}
	return zero, false, fmt.Errorf("%s: %w", op, err)
}

func notFoundOr(err error, kind, id, op string) error {
	if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
		return NotFound(kind, id)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isInvalidText matches malformed uuid input, which cannot name any row.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func foreignKeyViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
