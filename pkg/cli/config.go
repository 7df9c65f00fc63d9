package cli

import (
	"context"
	"errors"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/adapter"
	"github.com/snaptheplant/fieldguide/pkg/catalog"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/policy"
	"github.com/snaptheplant/fieldguide/pkg/quota"
	"github.com/snaptheplant/fieldguide/pkg/repository"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	logLevel  string
	logFormat string
	user      string

	// Repository
	project   string
	database  string
	stateFile string

	// Adapters
	geminiProject    string
	geminiLocation   string
	geminiModel      string
	geminiImageModel string
	photoBucket      string
	bigqueryDataset  string
	bigqueryTable    string

	// Policy and seed data
	policyDir   string
	catalogFile string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("FIELDGUIDE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       string(logging.FormatConsole),
			Sources:     cli.EnvVars("FIELDGUIDE_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID to act as",
			Value:       "local",
			Sources:     cli.EnvVars("FIELDGUIDE_USER"),
			Destination: &cfg.user,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID. Firestore is used when set, the state file otherwise",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "state",
			Usage:       "Path of the local state file used without Firestore",
			Value:       "fieldguide-state.yaml",
			Sources:     cli.EnvVars("FIELDGUIDE_STATE"),
			Destination: &cfg.stateFile,
		},
	}
}

// llmFlags returns flags for Gemini configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model for analysis and stories",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "gemini-image-model",
			Usage:       "Gemini model for illustrations",
			Sources:     cli.EnvVars("GEMINI_IMAGE_MODEL"),
			Destination: &cfg.geminiImageModel,
		},
	}
}

// storageFlags returns flags for photo storage and the observation log
func storageFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "photo-bucket",
			Usage:       "Cloud Storage bucket for saved photos. Photos stay in the store when empty",
			Sources:     cli.EnvVars("FIELDGUIDE_PHOTO_BUCKET"),
			Destination: &cfg.photoBucket,
		},
		&cli.StringFlag{
			Name:        "bigquery-dataset",
			Usage:       "BigQuery dataset of the observation log",
			Sources:     cli.EnvVars("FIELDGUIDE_BIGQUERY_DATASET"),
			Destination: &cfg.bigqueryDataset,
		},
		&cli.StringFlag{
			Name:        "bigquery-table",
			Usage:       "BigQuery table of the observation log",
			Value:       "observations",
			Sources:     cli.EnvVars("FIELDGUIDE_BIGQUERY_TABLE"),
			Destination: &cfg.bigqueryTable,
		},
	}
}

// quotaFlags returns flags for the daily limit policy
func quotaFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego quota policies. The built-in policy is used when empty",
			Sources:     cli.EnvVars("FIELDGUIDE_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
	}
}

// catalogFlags returns flags for the seed catalog
func catalogFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "catalog-file",
			Usage:       "YAML file of seed species. The built-in catalog is used when empty",
			Sources:     cli.EnvVars("FIELDGUIDE_CATALOG_FILE"),
			Destination: &cfg.catalogFile,
		},
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

// setupLogger installs the configured logger and attaches it to ctx
func (cfg *config) setupLogger(ctx context.Context) context.Context {
	logger := logging.NewWithFormat(cfg.logLevel, logging.Format(cfg.logFormat), os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newRepository creates Firestore when a project is configured, the file
// backed store otherwise. The returned func releases the repository.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, func(), error) {
	if cfg.project != "" {
		if cfg.database == "" {
			return nil, nil, newUsageError("database is required")
		}

		repo, err := repository.New(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				logging.From(ctx).Warn("failed to close repository", "error", err)
			}
		}, nil
	}

	if cfg.stateFile == "" {
		return nil, nil, newUsageError("state file is required without project")
	}
	repo, err := repository.NewFile(cfg.stateFile)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to open state file")
	}
	return repo, func() {}, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, newUsageError("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, newUsageError("gemini-location is required")
	}

	var opts []adapter.GeminiOption
	if cfg.geminiModel != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.geminiModel))
	}
	if cfg.geminiImageModel != "" {
		opts = append(opts, adapter.WithImageModel(cfg.geminiImageModel))
	}

	gemini, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// newStorage creates the photo storage, or nil when no bucket is configured
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.photoBucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.photoBucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// newBigQuery creates the observation log, or nil when no dataset is configured
func (cfg *config) newBigQuery(ctx context.Context) (adapter.BigQuery, error) {
	if cfg.bigqueryDataset == "" {
		return nil, nil
	}
	if cfg.bigqueryTable == "" {
		return nil, newUsageError("bigquery-table is required")
	}

	project := cfg.project
	if project == "" {
		project = cfg.geminiProject
	}
	if project == "" {
		return nil, newUsageError("project is required for bigquery")
	}

	bq, err := adapter.NewBigQuery(ctx, project, cfg.bigqueryDataset, cfg.bigqueryTable)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create bigquery client")
	}
	return bq, nil
}

// newLimiter creates the daily limiter from the configured policy
func (cfg *config) newLimiter(ctx context.Context, repo repository.QuotaRepository) (*quota.Limiter, error) {
	p, err := policy.NewQuota(ctx, cfg.policyDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load quota policy", goerr.V("dir", cfg.policyDir))
	}
	return quota.New(repo, p), nil
}

// seedRecords returns the configured seed catalog
func (cfg *config) seedRecords() ([]*model.SpeciesRecord, error) {
	records, err := catalog.LoadFile(cfg.catalogFile)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load seed catalog", goerr.V("path", cfg.catalogFile))
	}
	return records, nil
}

// loadCatalog reads the catalog from the store, seeding an empty store first
func (cfg *config) loadCatalog(ctx context.Context, repo repository.SpeciesRepository) (*catalog.Catalog, error) {
	records, err := cfg.seedRecords()
	if err != nil {
		return nil, err
	}
	seeded, err := catalog.Seed(ctx, repo, records)
	if err != nil {
		// an unseeded store still yields a usable, possibly empty catalog
		logging.From(ctx).Warn("failed to seed species catalog", "error", err)
	} else if seeded {
		logging.From(ctx).Info("seeded species catalog", "count", len(records))
	}

	return catalog.Load(ctx, repo), nil
}

// resolveUser returns the acting user, defaulting unknown ids to the free tier
func (cfg *config) resolveUser(ctx context.Context, repo repository.UserRepository) (*model.User, error) {
	if cfg.user == "" {
		return nil, newUsageError("user is required")
	}

	user, err := repo.GetUser(ctx, model.UserID(cfg.user))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.NewGuest(model.UserID(cfg.user)), nil
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("user_id", cfg.user))
	}
	return user, nil
}
