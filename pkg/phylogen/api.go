package phylogen

import (
	"context"

	"phylogen/internal/engine"
	"phylogen/internal/genome"
	"phylogen/internal/model"
	"phylogen/internal/objective"
	"phylogen/internal/platform"
	"phylogen/internal/storage"
)

const defaultDBPath = "phylogen.db"

type Options struct {
	StoreKind string
	DBPath    string
}

// Client is the embeddable front door to the engine: it owns a store and a
// habitat with the built-in genome families registered.
type Client struct {
	store   storage.Store
	habitat *platform.Habitat
}

func New(ctx context.Context, opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}

	habitat := platform.New(platform.Config{Store: store})
	if err := habitat.Init(ctx); err != nil {
		return nil, err
	}
	if err := habitat.RegisterFamily(genome.VectorFactory{}, genome.VectorOps{}); err != nil {
		return nil, err
	}
	if err := habitat.RegisterFamily(genome.BlueprintFactory{}, genome.BlueprintOps{}); err != nil {
		return nil, err
	}

	return &Client{store: store, habitat: habitat}, nil
}

// RegisterFamily adds a caller-supplied genome family beyond the built-ins.
func (c *Client) RegisterFamily(factory genome.Factory, ops genome.Ops) error {
	return c.habitat.RegisterFamily(factory, ops)
}

// StartRun launches an evolution run against a caller-supplied evaluator.
func (c *Client) StartRun(ctx context.Context, family string, cfg engine.RunConfig, evaluator engine.Evaluator) (string, error) {
	return c.habitat.StartRun(ctx, family, cfg, evaluator)
}

// StartObjectiveRun launches a run against one of the built-in objectives,
// filling in the objective's default template when the config has none.
func (c *Client) StartObjectiveRun(ctx context.Context, objectiveName string, cfg engine.RunConfig) (string, error) {
	obj, err := objective.Resolve(objectiveName)
	if err != nil {
		return "", err
	}
	if cfg.Template == nil {
		cfg.Template = obj.DefaultTemplate
	}
	return c.habitat.StartRun(ctx, obj.Family, cfg, obj.Evaluator)
}

func (c *Client) RunStatus(ctx context.Context, runID string) (model.RunRecord, bool, error) {
	return c.habitat.RunStatus(ctx, runID)
}

func (c *Client) GenerationHistory(ctx context.Context, runID string) ([]model.GenerationSnapshot, bool, error) {
	return c.habitat.GenerationHistory(ctx, runID)
}

func (c *Client) BestIndividual(ctx context.Context, runID string) (model.BestIndividualRecord, bool, error) {
	return c.habitat.BestIndividual(ctx, runID)
}

func (c *Client) CancelRun(runID string) error {
	return c.habitat.CancelRun(runID)
}

func (c *Client) WaitForRun(ctx context.Context, runID string) error {
	return c.habitat.WaitForRun(ctx, runID)
}

func (c *Client) Runs(ctx context.Context) ([]model.RunRecord, error) {
	return c.habitat.Runs(ctx)
}

func (c *Client) Close() error {
	return c.habitat.Close()
}
