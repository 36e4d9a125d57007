package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/letterloop-backend/internal/platform/envutil"
	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/types"
)

type roundDoc struct {
	EnvID     string         `gorm:"column:env_id;primaryKey"`
	Letter    string         `gorm:"column:letter;primaryKey"`
	Doc       datatypes.JSON `gorm:"column:doc;type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
}

func (roundDoc) TableName() string { return "round_doc" }

type settingsDoc struct {
	EnvID     string         `gorm:"column:env_id;primaryKey"`
	Doc       datatypes.JSON `gorm:"column:doc;type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
}

func (settingsDoc) TableName() string { return "settings_doc" }

type preferencesDoc struct {
	EnvID     string         `gorm:"column:env_id;primaryKey"`
	MemberKey string         `gorm:"column:member_key;primaryKey"`
	Doc       datatypes.JSON `gorm:"column:doc;type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
}

func (preferencesDoc) TableName() string { return "preferences_doc" }

type aiProfileDoc struct {
	EnvID     string         `gorm:"column:env_id;primaryKey"`
	Doc       datatypes.JSON `gorm:"column:doc;type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
}

func (aiProfileDoc) TableName() string { return "ai_profile_doc" }

type savedIdeaDoc struct {
	EnvID     string         `gorm:"column:env_id;primaryKey"`
	IdeaID    string         `gorm:"column:idea_id;primaryKey"`
	Doc       datatypes.JSON `gorm:"column:doc;type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
}

func (savedIdeaDoc) TableName() string { return "saved_idea_doc" }

// Postgres is the production Store: one jsonb document per record, addressed
// by environment id plus the per-collection key.
type Postgres struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgres(log *logger.Logger) (*Postgres, error) {
	host := envutil.GetEnv("POSTGRES_HOST", "localhost")
	port := envutil.GetEnv("POSTGRES_PORT", "5432")
	user := envutil.GetEnv("POSTGRES_USER", "postgres")
	password := envutil.GetEnv("POSTGRES_PASSWORD", "")
	name := envutil.GetEnv("POSTGRES_NAME", "letterloop")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	pg := &Postgres{db: db, log: log.With("service", "PostgresStore")}
	if err := pg.autoMigrate(); err != nil {
		return nil, err
	}
	return pg, nil
}

// NewPostgresWithDB wires an already-open gorm handle. Used by tests that run
// against a sqlite file instead of a live postgres.
func NewPostgresWithDB(db *gorm.DB, log *logger.Logger) (*Postgres, error) {
	pg := &Postgres{db: db, log: log.With("service", "PostgresStore")}
	if err := pg.autoMigrate(); err != nil {
		return nil, err
	}
	return pg, nil
}

func (p *Postgres) autoMigrate() error {
	return p.db.AutoMigrate(
		&roundDoc{},
		&settingsDoc{},
		&preferencesDoc{},
		&aiProfileDoc{},
		&savedIdeaDoc{},
	)
}

func (p *Postgres) GetRounds(ctx context.Context, envID string) ([]types.LetterRound, error) {
	var docs []roundDoc
	if err := p.db.WithContext(ctx).
		Where("env_id = ?", envID).
		Order("letter asc").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	rounds := make([]types.LetterRound, 0, len(docs))
	for _, d := range docs {
		var r types.LetterRound
		if err := json.Unmarshal(d.Doc, &r); err != nil {
			return nil, fmt.Errorf("decode round %s/%s: %w", envID, d.Letter, err)
		}
		rounds = append(rounds, r)
	}
	return rounds, nil
}

func (p *Postgres) SetRound(ctx context.Context, envID string, round types.LetterRound) error {
	doc, err := encodeRound(envID, round)
	if err != nil {
		return err
	}
	return p.upsertRounds(p.db.WithContext(ctx), []roundDoc{doc})
}

func (p *Postgres) SetRoundsBatch(ctx context.Context, envID string, rounds []types.LetterRound) error {
	if len(rounds) == 0 {
		return nil
	}
	docs := make([]roundDoc, 0, len(rounds))
	for _, r := range rounds {
		doc, err := encodeRound(envID, r)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	// All-or-nothing: one transaction per batch.
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return p.upsertRounds(tx, docs)
	})
}

func encodeRound(envID string, round types.LetterRound) (roundDoc, error) {
	if !types.IsLetter(round.Letter) {
		return roundDoc{}, fmt.Errorf("invalid round letter %q", round.Letter)
	}
	raw, err := json.Marshal(round)
	if err != nil {
		return roundDoc{}, fmt.Errorf("encode round %s: %w", round.Letter, err)
	}
	return roundDoc{
		EnvID:     envID,
		Letter:    round.Letter,
		Doc:       datatypes.JSON(raw),
		UpdatedAt: time.Now(),
	}, nil
}

func (p *Postgres) upsertRounds(tx *gorm.DB, docs []roundDoc) error {
	return tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "env_id"}, {Name: "letter"}},
			DoUpdates: clause.AssignmentColumns([]string{"doc", "updated_at"}),
		}).
		Create(&docs).Error
}

func (p *Postgres) GetSettings(ctx context.Context, envID string) (*types.Settings, error) {
	var doc settingsDoc
	err := p.db.WithContext(ctx).First(&doc, "env_id = ?", envID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var settings types.Settings
	if err := json.Unmarshal(doc.Doc, &settings); err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", envID, err)
	}
	return &settings, nil
}

func (p *Postgres) SetSettings(ctx context.Context, envID string, settings *types.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	doc := settingsDoc{EnvID: envID, Doc: datatypes.JSON(raw), UpdatedAt: time.Now()}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "env_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"doc", "updated_at"}),
		}).
		Create(&doc).Error
}

func (p *Postgres) GetPreferences(ctx context.Context, envID, memberKey string) (*types.UserPreferences, error) {
	var doc preferencesDoc
	err := p.db.WithContext(ctx).
		First(&doc, "env_id = ? AND member_key = ?", envID, memberKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var prefs types.UserPreferences
	if err := json.Unmarshal(doc.Doc, &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences %s/%s: %w", envID, memberKey, err)
	}
	return &prefs, nil
}

func (p *Postgres) SetPreferences(ctx context.Context, envID, memberKey string, prefs *types.UserPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	doc := preferencesDoc{
		EnvID:     envID,
		MemberKey: memberKey,
		Doc:       datatypes.JSON(raw),
		UpdatedAt: time.Now(),
	}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "env_id"}, {Name: "member_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"doc", "updated_at"}),
		}).
		Create(&doc).Error
}

func (p *Postgres) GetAIProfile(ctx context.Context, envID string) (*types.AIProfile, error) {
	var doc aiProfileDoc
	err := p.db.WithContext(ctx).First(&doc, "env_id = ?", envID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var profile types.AIProfile
	if err := json.Unmarshal(doc.Doc, &profile); err != nil {
		return nil, fmt.Errorf("decode ai profile %s: %w", envID, err)
	}
	return &profile, nil
}

func (p *Postgres) SetAIProfile(ctx context.Context, envID string, profile *types.AIProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode ai profile: %w", err)
	}
	doc := aiProfileDoc{EnvID: envID, Doc: datatypes.JSON(raw), UpdatedAt: time.Now()}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "env_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"doc", "updated_at"}),
		}).
		Create(&doc).Error
}

func (p *Postgres) ListSavedIdeas(ctx context.Context, envID string) ([]types.SavedIdea, error) {
	var docs []savedIdeaDoc
	if err := p.db.WithContext(ctx).
		Where("env_id = ?", envID).
		Order("updated_at asc").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	ideas := make([]types.SavedIdea, 0, len(docs))
	for _, d := range docs {
		var idea types.SavedIdea
		if err := json.Unmarshal(d.Doc, &idea); err != nil {
			return nil, fmt.Errorf("decode saved idea %s/%s: %w", envID, d.IdeaID, err)
		}
		ideas = append(ideas, idea)
	}
	return ideas, nil
}

func (p *Postgres) SetSavedIdea(ctx context.Context, envID string, idea types.SavedIdea) error {
	if idea.ID == "" {
		return errors.New("saved idea id required")
	}
	raw, err := json.Marshal(idea)
	if err != nil {
		return fmt.Errorf("encode saved idea: %w", err)
	}
	doc := savedIdeaDoc{
		EnvID:     envID,
		IdeaID:    idea.ID,
		Doc:       datatypes.JSON(raw),
		UpdatedAt: time.Now(),
	}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "env_id"}, {Name: "idea_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"doc", "updated_at"}),
		}).
		Create(&doc).Error
}

func (p *Postgres) EnvironmentsByMember(ctx context.Context, email string) ([]string, error) {
	member, err := json.Marshal(types.NormalizeMember(email))
	if err != nil {
		return nil, err
	}
	var envIDs []string
	if err := p.db.WithContext(ctx).
		Model(&settingsDoc{}).
		Where("doc -> 'members' @> ?", string(member)).
		Pluck("env_id", &envIDs).Error; err != nil {
		return nil, err
	}
	return envIDs, nil
}
