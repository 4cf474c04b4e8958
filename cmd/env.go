package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/course-intel/internal/config"
	"github.com/sells-group/course-intel/internal/contact"
	"github.com/sells-group/course-intel/internal/cost"
	"github.com/sells-group/course-intel/internal/intel"
	"github.com/sells-group/course-intel/internal/pipeline"
	"github.com/sells-group/course-intel/internal/provider"
	"github.com/sells-group/course-intel/internal/scrape"
	"github.com/sells-group/course-intel/internal/store"
	"github.com/sells-group/course-intel/internal/validate"
	"github.com/sells-group/course-intel/internal/waterfall"
	anthropicpkg "github.com/sells-group/course-intel/pkg/anthropic"
	"github.com/sells-group/course-intel/pkg/apollo"
	"github.com/sells-group/course-intel/pkg/brightdata"
	"github.com/sells-group/course-intel/pkg/firecrawl"
	"github.com/sells-group/course-intel/pkg/hunter"
	"github.com/sells-group/course-intel/pkg/jina"
	"github.com/sells-group/course-intel/pkg/perplexity"
	"github.com/sells-group/course-intel/pkg/supabase"
)

// pipelineEnv holds the store and the pipeline built from config.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases the store.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// clients are the provider clients. A client is nil when its credential
// is unset, which leaves the adapter built on it unconfigured.
type clients struct {
	Apollo     apollo.Client
	Hunter     hunter.Client
	Jina       jina.Client
	Firecrawl  firecrawl.Client
	Perplexity perplexity.Client
	BrightData brightdata.Client
	Anthropic  anthropicpkg.Client
}

func newClients(c *config.Config) clients {
	var cl clients
	if c.Apollo.Key != "" {
		cl.Apollo = apollo.NewClient(c.Apollo.Key, apollo.WithBaseURL(c.Apollo.BaseURL))
	}
	if c.Hunter.Key != "" {
		cl.Hunter = hunter.NewClient(c.Hunter.Key, hunter.WithBaseURL(c.Hunter.BaseURL))
	}
	if c.Jina.Key != "" {
		opts := []jina.Option{jina.WithBaseURL(c.Jina.BaseURL)}
		if c.Jina.SearchBaseURL != "" {
			opts = append(opts, jina.WithSearchBaseURL(c.Jina.SearchBaseURL))
		}
		cl.Jina = jina.NewClient(c.Jina.Key, opts...)
	}
	if c.Firecrawl.Key != "" {
		cl.Firecrawl = firecrawl.NewClient(c.Firecrawl.Key, firecrawl.WithBaseURL(c.Firecrawl.BaseURL))
	}
	if c.Perplexity.Key != "" {
		cl.Perplexity = perplexity.NewClient(c.Perplexity.Key, perplexity.WithBaseURL(c.Perplexity.BaseURL), perplexity.WithModel(c.Perplexity.Model))
	}
	if c.BrightData.Token != "" {
		cl.BrightData = brightdata.NewClient(c.BrightData.Token, brightdata.WithBaseURL(c.BrightData.BaseURL))
	}
	if c.Anthropic.Key != "" {
		cl.Anthropic = anthropicpkg.NewClient(c.Anthropic.Key)
	}
	return cl
}

// ratesFrom maps the pricing section onto calculator rates.
func ratesFrom(p config.PricingConfig) cost.Rates {
	rates := cost.DefaultRates()
	for name, m := range p.Anthropic {
		if rates.Anthropic == nil {
			rates.Anthropic = make(map[string]cost.ModelRate)
		}
		rates.Anthropic[name] = cost.ModelRate{Input: m.Input, Output: m.Output}
	}
	if p.Jina.PerMTok > 0 {
		rates.Jina.PerMTok = p.Jina.PerMTok
	}
	if p.Perplexity.PerQuery > 0 {
		rates.Perplexity.PerQuery = p.Perplexity.PerQuery
	}
	if p.Firecrawl.PlanMonthly > 0 && p.Firecrawl.CreditsIncluded > 0 {
		rates.Firecrawl = cost.FirecrawlRate{PlanMonthly: p.Firecrawl.PlanMonthly, CreditsIncluded: p.Firecrawl.CreditsIncluded}
	}
	if p.Apollo.PerCredit > 0 {
		rates.Apollo.PerCredit = p.Apollo.PerCredit
	}
	if p.Hunter.PerRequest > 0 {
		rates.Hunter.PerRequest = p.Hunter.PerRequest
	}
	if p.BrightData.PerRequest > 0 {
		rates.BrightData.PerRequest = p.BrightData.PerRequest
	}
	return rates
}

// newScrapeChain builds the page reader chain: Jina Reader, Firecrawl,
// Bright Data Web Unlocker, then a keyless local fetch.
func newScrapeChain(c *config.Config, cl clients) *scrape.Chain {
	var scrapers []scrape.Scraper
	if cl.Jina != nil {
		scrapers = append(scrapers, scrape.NewJinaAdapter(cl.Jina))
	}
	if cl.Firecrawl != nil {
		scrapers = append(scrapers, scrape.NewFirecrawlAdapter(cl.Firecrawl))
	}
	if cl.BrightData != nil {
		scrapers = append(scrapers, scrape.NewBrightDataAdapter(cl.BrightData, c.BrightData.UnlockerZone))
	}
	scrapers = append(scrapers, scrape.NewLocalScraper())
	return scrape.NewChain(scrapers...)
}

// waterfallConfig loads the stage file when one is configured. Threshold,
// confidence floor and titles always come from the main config.
func waterfallConfig(c *config.Config) (*waterfall.Config, error) {
	wf := waterfall.DefaultConfig()
	if c.Waterfall.ConfigPath != "" {
		loaded, err := waterfall.LoadConfig(c.Waterfall.ConfigPath)
		if err != nil {
			return nil, err
		}
		wf = loaded
	}
	if c.Waterfall.SuccessThreshold > 0 {
		wf.SuccessThreshold = c.Waterfall.SuccessThreshold
	}
	if c.Waterfall.MinEmailConfidence > 0 {
		wf.MinEmailConfidence = c.Waterfall.MinEmailConfidence
	}
	if len(c.Waterfall.TargetTitles) > 0 {
		wf.TargetTitles = c.Waterfall.TargetTitles
	}
	return wf, nil
}

// openStore opens the configured backend against the production or test
// table family.
func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	tables := store.TablesFor(c.Store.UseTestTables)
	switch c.Store.Driver {
	case "sqlite":
		return store.NewSQLite(c.Store.DatabaseURL, tables)
	case "postgres":
		return store.NewPostgres(ctx, c.Store.DatabaseURL, tables, nil)
	case "supabase":
		key := c.Supabase.ServiceRoleKey
		if key == "" {
			key = c.Supabase.AnonKey
		}
		return store.NewSupabase(supabase.NewClient(c.Supabase.URL, key), tables), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// buildPipeline wires clients, adapters, the waterfall, the collector and
// the store into a Pipeline.
func buildPipeline(st store.Store, c *config.Config) (*pipeline.Pipeline, error) {
	cl := newClients(c)
	opts := provider.Options{
		Timeout: time.Duration(c.Provider.TimeoutSecs) * time.Second,
		Calc:    cost.NewCalculator(ratesFrom(c.Pricing)),
	}

	web := provider.NewWeb(cl.Jina, cl.Firecrawl, newScrapeChain(c, cl), opts)
	llm := provider.NewLLM(cl.Anthropic, opts)
	research := provider.NewResearch(cl.Perplexity, opts)
	b2b := provider.NewB2B(cl.Apollo, opts)
	domainEmail := provider.NewDomainEmail(cl.Hunter, opts)
	feeHazard := provider.NewFeeHazard(cl.BrightData, c.BrightData.SERPZone, web, web, opts)

	bl, err := contact.LoadBlocklist(c.Blocklist.Path, c.Blocklist.PersonIDs)
	if err != nil {
		return nil, err
	}
	validator := contact.NewValidator(bl)

	wfCfg, err := waterfallConfig(c)
	if err != nil {
		return nil, err
	}
	steps := waterfall.BuildSteps(wfCfg, waterfall.Providers{
		Staff:       provider.NewStaffPages(web, llm, c.Anthropic.HaikuModel),
		B2B:         b2b,
		DomainEmail: domainEmail,
		Research:    research,
	})

	zap.L().Info("pipeline configured",
		zap.String("store", c.Store.Driver),
		zap.Bool("test_tables", c.Store.UseTestTables),
		zap.Int("stages", len(steps)),
		zap.Int("blocked_person_ids", bl.Len()),
		zap.Bool("web", web.Configured()),
		zap.Bool("llm", llm.Configured()),
	)

	return pipeline.New(pipeline.Deps{
		Store:     st,
		Web:       web,
		Waterfall: waterfall.NewExecutor(wfCfg, steps, validator),
		Collector: intel.NewCollector(feeHazard, research, llm, c.Anthropic.SonnetModel),
		Validator: validate.New(wfCfg.MinEmailConfidence),
		Titles:    wfCfg.TargetTitles,
	}), nil
}

// initPipeline validates config for enrichment, opens the store and builds
// the pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate("enrich"); err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	p, err := buildPipeline(st, cfg)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "build pipeline")
	}
	return &pipelineEnv{Store: st, Pipeline: p}, nil
}
