package classify

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"reelscout/internal/logging"
	"reelscout/internal/record"
	"reelscout/internal/services"
	"reelscout/internal/services/llm"
)

// Oracle judges one batch of candidates and returns classifications keyed by
// canonical candidate id. Candidates missing from the result map are
// unclassified; the caller decides what that means. An error covers the whole
// batch.
type Oracle interface {
	Judge(ctx context.Context, batch []record.Candidate) (map[string]record.Classification, error)
}

// completer is the slice of the chat client the oracle needs.
type completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

var _ completer = (*llm.Client)(nil)

const promptDescriptionLimit = 200

var genreVocabulary = map[string]struct{}{
	"horror":      {},
	"comedy":      {},
	"drama":       {},
	"western":     {},
	"sci-fi":      {},
	"noir":        {},
	"thriller":    {},
	"romance":     {},
	"documentary": {},
	"unknown":     {},
}

var genreAliases = map[string]string{
	"science fiction": "sci-fi",
	"science-fiction": "sci-fi",
	"scifi":           "sci-fi",
	"sci fi":          "sci-fi",
	"film noir":       "noir",
	"film-noir":       "noir",
	"suspense":        "thriller",
	"romantic":        "romance",
}

var eraPattern = regexp.MustCompile(`^\d{4}s$`)

const oracleSystemPrompt = `You are a film historian and archivist who evaluates online videos.
Your task is to decide whether each video is a genuine old or classic feature film,
meaning a complete theatrical movie made before roughly 1970, not a trailer, clip,
restoration reel, review, or modern homage. Respond with JSON only.`

// LLMOracle classifies candidates through a chat-completion model.
type LLMOracle struct {
	client completer
	logger *slog.Logger
}

// NewLLMOracle wraps a chat client as a classification oracle.
func NewLLMOracle(client completer, logger *slog.Logger) *LLMOracle {
	return &LLMOracle{
		client: client,
		logger: logging.NewComponentLogger(logger, "oracle"),
	}
}

type judgmentPayload struct {
	ID             string `json:"id"`
	IsOldMovie     bool   `json:"is_old_movie"`
	EstimatedEra   string `json:"estimated_era"`
	Genre          string `json:"genre"`
	RelevanceScore int    `json:"relevance_score"`
}

// Judge sends one batch to the model and maps each returned judgment back to
// its candidate. Judgments with an unknown id or an out-of-range relevance
// score are dropped individually; a payload that cannot be decoded at all
// fails the batch.
func (o *LLMOracle) Judge(ctx context.Context, batch []record.Candidate) (map[string]record.Classification, error) {
	if len(batch) == 0 {
		return map[string]record.Classification{}, nil
	}

	content, err := o.client.CompleteJSON(ctx, oracleSystemPrompt, buildBatchPrompt(batch))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "classify", "judge", "oracle request failed", err)
	}

	var judgments []judgmentPayload
	if err := llm.DecodeJSON(content, &judgments); err != nil {
		// The model may wrap the array in an envelope object.
		var envelope struct {
			Results []judgmentPayload `json:"results"`
			Videos  []judgmentPayload `json:"videos"`
		}
		if envErr := llm.DecodeJSON(content, &envelope); envErr != nil {
			return nil, services.Wrap(services.ErrMalformed, "classify", "judge", "decode oracle payload", err)
		}
		judgments = envelope.Results
		if len(judgments) == 0 {
			judgments = envelope.Videos
		}
		if len(judgments) == 0 {
			return nil, services.Wrap(services.ErrMalformed, "classify", "judge", "decode oracle payload", err)
		}
	}

	known := make(map[string]struct{}, len(batch))
	for _, candidate := range batch {
		known[candidate.ID] = struct{}{}
	}

	logger := logging.WithContext(ctx, o.logger)
	results := make(map[string]record.Classification, len(judgments))
	for _, judgment := range judgments {
		id := strings.TrimSpace(judgment.ID)
		if _, ok := known[id]; !ok {
			logger.Warn("oracle returned unknown candidate id", logging.String(logging.FieldCandidateID, judgment.ID))
			continue
		}
		if judgment.RelevanceScore < 1 || judgment.RelevanceScore > 10 {
			logger.Warn("oracle relevance out of range, dropping judgment",
				logging.String(logging.FieldCandidateID, id),
				logging.Int("relevance", judgment.RelevanceScore))
			continue
		}
		results[id] = record.Classification{
			IsOldMovie: judgment.IsOldMovie,
			Era:        normalizeEra(judgment.EstimatedEra),
			Genre:      normalizeGenre(judgment.Genre),
			Relevance:  judgment.RelevanceScore,
		}
	}
	return results, nil
}

func buildBatchPrompt(batch []record.Candidate) string {
	var b strings.Builder
	b.WriteString("Evaluate each video below. Return a JSON array with exactly one object per video:\n")
	b.WriteString(`{"id": "<the id given below>", "is_old_movie": true|false, ` +
		`"estimated_era": "<decade such as 1930s, or modern>", ` +
		`"genre": "<one of: horror, comedy, drama, western, sci-fi, noir, thriller, romance, documentary, unknown>", ` +
		`"relevance_score": <integer 1-10, how likely this is a genuine classic feature film>}`)
	b.WriteString("\n\nVideos:\n")
	for i, candidate := range batch {
		fmt.Fprintf(&b, "%d. id: %s\n", i+1, candidate.ID)
		fmt.Fprintf(&b, "   title: %s\n", candidate.Title)
		if candidate.Duration > 0 {
			fmt.Fprintf(&b, "   duration_minutes: %d\n", candidate.Duration/60)
		}
		if candidate.Uploader != "" {
			fmt.Fprintf(&b, "   uploader: %s\n", candidate.Uploader)
		}
		if description := promptDescription(candidate.Description); description != "" {
			fmt.Fprintf(&b, "   description: %s\n", description)
		}
	}
	return b.String()
}

func promptDescription(description string) string {
	clean := strings.Join(strings.Fields(description), " ")
	runes := []rune(clean)
	if len(runes) > promptDescriptionLimit {
		return string(runes[:promptDescriptionLimit]) + "..."
	}
	return clean
}

func normalizeEra(era string) string {
	era = strings.ToLower(strings.TrimSpace(era))
	if era == "modern" || eraPattern.MatchString(era) {
		return era
	}
	return ""
}

func normalizeGenre(genre string) string {
	genre = strings.ToLower(strings.TrimSpace(genre))
	if alias, ok := genreAliases[genre]; ok {
		genre = alias
	}
	if _, ok := genreVocabulary[genre]; ok {
		return genre
	}
	return "unknown"
}
