package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/DriveScout/drivescout/engine/domain"
	"github.com/DriveScout/drivescout/pkg/fn"
	"github.com/DriveScout/drivescout/pkg/ollama"
)

const criteriaPrompt = `Extract car search criteria from the user's message.
Only include fields the user actually mentioned. Omit everything else.
Prices and mileage are plain integers (no symbols). Years are four digits.
transmission is "automatic" or "manual". listing_type is "new", "used", or "all".`

const schedulePrompt = `Extract email delivery details from the user's message.
frequency must be of the form "rate(N days)" (daily = "rate(1 day)",
weekly = "rate(7 days)", monthly = "rate(30 days)").
end_date must be YYYY-MM-DD. Only include fields the user mentioned.`

var criteriaSchema = &ollama.Schema{
	Type: "object",
	Properties: map[string]ollama.SchemaProperty{
		"make":         {Type: "string"},
		"model":        {Type: "string"},
		"year_min":     {Type: "integer"},
		"year_max":     {Type: "integer"},
		"mileage_max":  {Type: "integer"},
		"price_min":    {Type: "integer"},
		"price_max":    {Type: "integer"},
		"location":     {Type: "string"},
		"transmission": {Type: "string", Enum: []string{"automatic", "manual"}},
		"listing_type": {Type: "string", Enum: []string{"new", "used", "all"}},
	},
}

var scheduleSchema = &ollama.Schema{
	Type: "object",
	Properties: map[string]ollama.SchemaProperty{
		"email":     {Type: "string"},
		"frequency": {Type: "string"},
		"end_date":  {Type: "string"},
	},
}

// LLM extracts criteria with a local model and falls back to the rule
// extractor whenever the model is unreachable or returns junk.
type LLM struct {
	client   *ollama.Client
	model    string
	fallback Extractor
	timeout  time.Duration
	log      *slog.Logger
}

func NewLLM(client *ollama.Client, model string, log *slog.Logger) *LLM {
	if log == nil {
		log = slog.Default()
	}
	return &LLM{
		client:   client,
		model:    model,
		fallback: NewRules(),
		timeout:  15 * time.Second,
		log:      log,
	}
}

func (l *LLM) Criteria(ctx context.Context, text string) domain.Criteria {
	var c domain.Criteria
	if err := l.ask(ctx, criteriaPrompt, text, criteriaSchema, &c); err != nil {
		l.log.Warn("llm criteria extraction failed, using rules", "error", err)
		return l.fallback.Criteria(ctx, text)
	}
	sanitizeCriteria(&c)
	return c
}

func (l *LLM) Schedule(ctx context.Context, text string) domain.Schedule {
	var s domain.Schedule
	if err := l.ask(ctx, schedulePrompt, text, scheduleSchema, &s); err != nil {
		l.log.Warn("llm schedule extraction failed, using rules", "error", err)
		return l.fallback.Schedule(ctx, text)
	}
	sanitizeSchedule(&s)
	return s
}

func (l *LLM) ask(ctx context.Context, system, text string, schema *ollama.Schema, out any) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	messages := []ollama.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: text},
	}
	res := fn.Retry(ctx, fn.RetryOpts{MaxAttempts: 2, InitialWait: 500 * time.Millisecond}, func(ctx context.Context) fn.Result[string] {
		return fn.FromPair(l.client.Chat(ctx, l.model, messages, schema))
	})
	raw, err := res.Unwrap()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

// sanitizeCriteria drops zero-valued fields the model emitted anyway.
func sanitizeCriteria(c *domain.Criteria) {
	dropEmpty(&c.Make)
	dropEmpty(&c.Model)
	dropEmpty(&c.Location)
	dropEmpty(&c.Transmission)
	dropEmpty(&c.ListingType)
	dropZero(&c.YearMin)
	dropZero(&c.YearMax)
	dropZero(&c.MileageMax)
	dropZero(&c.PriceMin)
	dropZero(&c.PriceMax)
}

func sanitizeSchedule(s *domain.Schedule) {
	dropEmpty(&s.Email)
	dropEmpty(&s.Frequency)
	dropEmpty(&s.EndDate)
}

func dropEmpty(p **string) {
	if *p != nil && **p == "" {
		*p = nil
	}
}

func dropZero(p **int) {
	if *p != nil && **p == 0 {
		*p = nil
	}
}
